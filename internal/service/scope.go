package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/boddenberg/corp-ledger-go/internal/domain"
	"github.com/boddenberg/corp-ledger-go/internal/ledger"

	"golang.org/x/sync/errgroup"
)

// scope is everything the engines need to know about the requested entity:
// who the subjects are and whose journals to read.
type scope struct {
	view       domain.View
	entityID   int64
	entityName string
	subjects   []ledger.Subject
	viewer     domain.IDSet
	owners     []int64
	// miners is only set in character scope.
	miners []int64
}

// characterScope builds one subject per linked character. Records moving
// between them are intra-alt donations and drop out.
func (s *LedgerService) characterScope(ctx context.Context, characterID int64) (*scope, error) {
	ch, err := s.store.GetCharacter(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("character lookup: %w", err)
	}
	linked, err := s.store.ListLinkedCharacters(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("linked characters: %w", err)
	}
	if len(linked) == 0 {
		linked = []domain.Character{*ch}
	}
	sort.Slice(linked, func(i, j int) bool { return linked[i].ID < linked[j].ID })

	ids := domain.NewIDSet()
	for _, c := range linked {
		ids.Add(c.ID)
	}

	subjects := make([]ledger.Subject, 0, len(linked))
	for _, c := range linked {
		subjects = append(subjects, ledger.Subject{
			ID:     c.ID,
			Name:   c.Name,
			Kind:   domain.KindCharacter,
			IDs:    domain.NewIDSet(c.ID),
			Linked: ids,
		})
	}

	owners := ids.Sorted()
	return &scope{
		view:       domain.ViewCharacter,
		entityID:   ch.ID,
		entityName: ch.Name,
		subjects:   subjects,
		viewer:     ids,
		owners:     owners,
		miners:     owners,
	}, nil
}

// corporationScope groups the members by account (main character) and puts
// the catch-all bucket last.
func (s *LedgerService) corporationScope(ctx context.Context, corporationID int64) (*scope, error) {
	corp, err := s.store.GetCorporation(ctx, corporationID)
	if err != nil {
		return nil, fmt.Errorf("corporation lookup: %w", err)
	}
	members, err := s.store.ListCorporationMembers(ctx, corporationID)
	if err != nil {
		return nil, fmt.Errorf("corporation members: %w", err)
	}

	type account struct {
		main int64
		name string
		ids  domain.IDSet
	}
	accounts := make(map[int64]*account)
	for _, m := range members {
		main := m.MainID
		if main == 0 {
			main = m.ID
		}
		acc, ok := accounts[main]
		if !ok {
			acc = &account{main: main, ids: domain.NewIDSet()}
			accounts[main] = acc
		}
		acc.ids.Add(m.ID)
		if m.ID == main || acc.name == "" {
			acc.name = m.Name
		}
	}

	mains := make([]int64, 0, len(accounts))
	for id := range accounts {
		mains = append(mains, id)
	}
	sort.Slice(mains, func(i, j int) bool { return mains[i] < mains[j] })

	subjects := make([]ledger.Subject, 0, len(mains)+1)
	for _, id := range mains {
		acc := accounts[id]
		subjects = append(subjects, ledger.Subject{
			ID:     acc.main,
			Name:   acc.name,
			Kind:   domain.KindCharacter,
			IDs:    acc.ids,
			Linked: acc.ids,
		})
	}
	subjects = append(subjects, ledger.UnknownSubject())

	return &scope{
		view:       domain.ViewCorporation,
		entityID:   corp.ID,
		entityName: corp.Name,
		subjects:   subjects,
		viewer:     domain.NewIDSet(corp.ID),
		owners:     []int64{corp.ID},
	}, nil
}

// allianceScope makes every member corporation a subject. The corporation
// records are fetched concurrently.
func (s *LedgerService) allianceScope(ctx context.Context, allianceID int64) (*scope, error) {
	alliance, err := s.store.GetAlliance(ctx, allianceID)
	if err != nil {
		return nil, fmt.Errorf("alliance lookup: %w", err)
	}

	corpIDs := append([]int64(nil), alliance.CorporationIDs...)
	sort.Slice(corpIDs, func(i, j int) bool { return corpIDs[i] < corpIDs[j] })

	corps := make([]*domain.Corporation, len(corpIDs))
	g, gCtx := errgroup.WithContext(ctx)
	for i, id := range corpIDs {
		i, id := i, id
		g.Go(func() error {
			c, err := s.store.GetCorporation(gCtx, id)
			if err != nil {
				return fmt.Errorf("alliance member %d: %w", id, err)
			}
			corps[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	subjects := make([]ledger.Subject, 0, len(corps)+1)
	for _, c := range corps {
		subjects = append(subjects, ledger.Subject{
			ID:   c.ID,
			Name: c.Name,
			Kind: domain.KindCorporation,
			IDs:  domain.NewIDSet(c.ID),
		})
	}
	subjects = append(subjects, ledger.UnknownSubject())

	return &scope{
		view:       domain.ViewAlliance,
		entityID:   alliance.ID,
		entityName: alliance.Name,
		subjects:   subjects,
		viewer:     domain.NewIDSet(alliance.ID),
		owners:     corpIDs,
	}, nil
}

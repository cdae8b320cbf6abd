// Package taxonomy maps wallet journal reference types to ledger categories.
//
// The table is fixed at compile time. Every non-PvE code belongs to exactly
// one category; bounty and ESS codes live in their own PvE categories and
// are kept out of the AllRefTypes union so the miscellaneous view never
// double counts the dedicated PvE totals.
package taxonomy

import (
	"fmt"
	"sort"
	"strings"
)

// Category is a named group of reference types.
type Category string

const (
	BountyPrizes     Category = "BOUNTY_PRIZES"
	ESSTransfer      Category = "ESS_TRANSFER"
	MissionReward    Category = "MISSION_REWARD"
	Incursion        Category = "INCURSION"
	DailyGoals       Category = "DAILY_GOALS"
	Market           Category = "MARKET"
	Production       Category = "PRODUCTION"
	Contract         Category = "CONTRACT"
	Donation         Category = "DONATION"
	Insurance        Category = "INSURANCE"
	Planetary        Category = "PLANETARY"
	Skill            Category = "SKILL"
	Traveling        Category = "TRAVELING"
	StructureRental  Category = "STRUCTURE_RENTAL"
	CorporationAdmin Category = "CORPORATION_ADMIN"
	War              Category = "WAR"
	LPStore          Category = "LP_STORE"
	Taxes            Category = "TAXES"

	// NotDefined collects every code missing from the table. New codes
	// appear upstream over time and must never break aggregation.
	NotDefined Category = "NOT_DEFINED_CATEGORY"
)

var labels = map[Category]string{
	BountyPrizes:     "Bounty",
	ESSTransfer:      "ESS",
	MissionReward:    "Mission Reward",
	Incursion:        "Incursion",
	DailyGoals:       "Daily Goals",
	Market:           "Market",
	Production:       "Production",
	Contract:         "Contract",
	Donation:         "Donation",
	Insurance:        "Insurance",
	Planetary:        "Planetary",
	Skill:            "Skill",
	Traveling:        "Traveling",
	StructureRental:  "Structure Rental",
	CorporationAdmin: "Corporation Administration",
	War:              "War",
	LPStore:          "LP Store",
	Taxes:            "Taxes",
	NotDefined:       "Not Defined",
}

// Label returns the display name of the category.
func (c Category) Label() string {
	if l, ok := labels[c]; ok {
		return l
	}
	return labels[NotDefined]
}

// IsPvE reports whether the category is one of the dedicated PvE lines.
func (c Category) IsPvE() bool {
	return c == BountyPrizes || c == ESSTransfer
}

// RefTypes returns the codes of the category in ascending order.
func (c Category) RefTypes() []RefType {
	codes := append([]RefType(nil), table[c]...)
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// byCode is the reverse index of table, built once in init.
var byCode map[RefType]Category

func init() {
	byCode = make(map[RefType]Category)
	for cat, codes := range table {
		for _, code := range codes {
			if prev, dup := byCode[code]; dup {
				panic(fmt.Sprintf("taxonomy: %s claimed by both %s and %s", code, prev, cat))
			}
			byCode[code] = cat
		}
	}
}

// CategoryOf returns the category of a journal ref_type. Lookup is
// case-insensitive and falls back to NotDefined.
func CategoryOf(code string) Category {
	if cat, ok := byCode[Normalize(code)]; ok {
		return cat
	}
	return NotDefined
}

// Lookup resolves a category by name. Unknown names degrade to NotDefined.
func Lookup(name string) Category {
	c := Category(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := labels[c]; ok {
		return c
	}
	return NotDefined
}

// Categories returns the non-PvE categories in name order.
func Categories() []Category {
	cats := make([]Category, 0, len(table))
	for c := range table {
		if !c.IsPvE() {
			cats = append(cats, c)
		}
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

// PvECategories returns the bounty and ESS categories.
func PvECategories() []Category {
	return []Category{BountyPrizes, ESSTransfer}
}

// AllRefTypes returns the union of every non-PvE category, sorted. It backs
// the "miscellaneous / all income or cost" filters.
func AllRefTypes() []RefType {
	var all []RefType
	for _, c := range Categories() {
		all = append(all, table[c]...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	return all
}

// IsKnown reports whether code is part of any category, PvE included.
func IsKnown(code string) bool {
	_, ok := byCode[Normalize(code)]
	return ok
}

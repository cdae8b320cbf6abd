package taxonomy

import "strings"

// RefType is a lower-cased ESI wallet journal reference type.
type RefType string

// Normalize lower-cases and trims a raw ref_type code.
func Normalize(code string) RefType {
	return RefType(strings.ToLower(strings.TrimSpace(code)))
}

// Codes referenced by the engines directly.
const (
	RefBountyPrizes             RefType = "bounty_prizes"
	RefESSEscrowTransfer        RefType = "ess_escrow_transfer"
	RefMarketTransaction        RefType = "market_transaction"
	RefPlayerDonation           RefType = "player_donation"
	RefContractPricePaymentCorp RefType = "contract_price_payment_corp"
)

var table = map[Category][]RefType{
	BountyPrizes: {RefBountyPrizes},
	ESSTransfer:  {RefESSEscrowTransfer},

	MissionReward: {
		"agent_mission_reward",
		"agent_mission_time_bonus_reward",
		"agent_mission_collateral_paid",
		"agent_mission_collateral_refunded",
		"agent_donation",
	},
	Incursion: {
		"corporate_reward_payout",
	},
	DailyGoals: {
		"daily_challenge_reward",
		"daily_goal_payouts",
		"milestone_reward_payment",
		"project_discovery_reward",
		"redeemed_isk_token",
		"resource_wars_reward",
	},
	Market: {
		RefMarketTransaction,
		"market_escrow",
		"market_fine_paid",
		"market_provider_tax",
		"brokers_fee",
		"transaction_tax",
		"modify_market_order",
	},
	Production: {
		"industry_job_tax",
		"manufacturing",
		"copying",
		"reaction",
		"researching_material_productivity",
		"researching_time_productivity",
		"researching_technology",
		"reverse_engineering",
		"reprocessing_tax",
		"facility_usage",
		"industry_facility_tax",
	},
	Contract: {
		"contract_auction_bid",
		"contract_auction_bid_corp",
		"contract_auction_bid_refund",
		"contract_auction_sold",
		"contract_brokers_fee",
		"contract_brokers_fee_corp",
		"contract_collateral",
		"contract_collateral_deposited_corp",
		"contract_collateral_payout",
		"contract_collateral_refund",
		"contract_deposit",
		"contract_deposit_corp",
		"contract_deposit_refund",
		"contract_deposit_sales_tax",
		"contract_price",
		RefContractPricePaymentCorp,
		"contract_reversal",
		"contract_reward",
		"contract_reward_deposited",
		"contract_reward_deposited_corp",
		"contract_reward_refund",
		"contract_sales_tax",
	},
	Donation: {
		RefPlayerDonation,
		"corporation_account_withdrawal",
		"player_trading",
		"corporation_dividend_payment",
	},
	Insurance: {
		"insurance",
	},
	Planetary: {
		"planetary_export_tax",
		"planetary_import_tax",
		"planetary_construction",
	},
	Skill: {
		"skill_purchase",
	},
	Traveling: {
		"jump_clone_activation_fee",
		"jump_clone_installation_fee",
		"structure_gate_jump",
		"docking_fee",
		"acceleration_gate_fee",
	},
	StructureRental: {
		"office_rental_fee",
		"infrastructure_hub_maintenance",
		"sovereignity_bill",
		"asset_safety_recovery_tax",
	},
	CorporationAdmin: {
		"alliance_maintainance_fee",
		"alliance_registration_fee",
		"corporation_registration_fee",
		"corporation_logo_change_cost",
		"cspa",
		"bribe",
	},
	War: {
		"war_fee",
		"war_fee_surrender",
		"war_ally_contract",
		"kill_right_fee",
	},
	LPStore: {
		"lp_store",
	},
	Taxes: {
		"corporate_reward_tax",
		"clone_activation",
		"clone_transfer",
		"duty",
	},
}

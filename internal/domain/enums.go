package domain

type Role string

const (
	RoleResident   Role = "resident"
	RoleChairman   Role = "chairman"
	RoleAccountant Role = "accountant"
	RoleSecretary  Role = "secretary"
	RoleAdmin      Role = "admin"

	// RoleGuest is never stored; it names an unauthenticated visitor in
	// access checks and QA matrices.
	RoleGuest Role = "guest"
)

// ValidRoles is the canonical set of roles a stored user may hold.
var ValidRoles = map[Role]bool{
	RoleResident: true, RoleChairman: true, RoleAccountant: true,
	RoleSecretary: true, RoleAdmin: true,
}

// StaffRoles reach the administrative console.
var StaffRoles = []Role{RoleChairman, RoleAccountant, RoleSecretary, RoleAdmin}

// FinanceRoles may read debts and book charges and payments.
var FinanceRoles = []Role{RoleChairman, RoleAccountant, RoleAdmin}

// BoardRoles publish content and change membership status.
var BoardRoles = []Role{RoleChairman, RoleSecretary, RoleAdmin}

type MembershipStatus string

const (
	MembershipNone      MembershipStatus = "none"
	MembershipPending   MembershipStatus = "pending"
	MembershipActive    MembershipStatus = "active"
	MembershipSuspended MembershipStatus = "suspended"
	MembershipExpelled  MembershipStatus = "expelled"
)

var ValidMembershipStatuses = map[MembershipStatus]bool{
	MembershipNone: true, MembershipPending: true, MembershipActive: true,
	MembershipSuspended: true, MembershipExpelled: true,
}

type AppealStatus string

const (
	AppealNew        AppealStatus = "new"
	AppealInProgress AppealStatus = "in_progress"
	AppealResolved   AppealStatus = "resolved"
	AppealRejected   AppealStatus = "rejected"
)

type ChargeKind string

const (
	ChargeMembership  ChargeKind = "membership"
	ChargeTarget      ChargeKind = "target"
	ChargeElectricity ChargeKind = "electricity"
	ChargePenalty     ChargeKind = "penalty"
)

var ValidChargeKinds = map[ChargeKind]bool{
	ChargeMembership: true, ChargeTarget: true, ChargeElectricity: true, ChargePenalty: true,
}

type PaymentSource string

const (
	PaymentBank             PaymentSource = "bank"
	PaymentCash             PaymentSource = "cash"
	PaymentFromConfirmation PaymentSource = "confirmation"
)

var ValidPaymentSources = map[PaymentSource]bool{
	PaymentBank: true, PaymentCash: true, PaymentFromConfirmation: true,
}

type ConfirmationStatus string

const (
	ConfirmationPending  ConfirmationStatus = "pending"
	ConfirmationApproved ConfirmationStatus = "approved"
	ConfirmationRejected ConfirmationStatus = "rejected"
)

type Audience string

const (
	AudienceAll     Audience = "all"
	AudienceMembers Audience = "members"
)

package domain

import "time"

type Membership struct {
	UserID    string
	Status    MembershipStatus
	Since     *time.Time
	Note      string
	UpdatedAt time.Time
}

// Feature names a cabinet section whose visibility depends on membership.
type Feature string

const (
	FeatureBalance       Feature = "balance"
	FeatureAppeals       Feature = "appeals"
	FeaturePayments      Feature = "payments"
	FeatureElectricity   Feature = "electricity"
	FeatureAnnouncements Feature = "announcements"
	FeatureDocuments     Feature = "documents"
	FeatureMembersDocs   Feature = "members_documents"
	FeatureMembersNews   Feature = "members_announcements"
	FeatureDecisions     Feature = "decisions"
)

var featuresByStatus = map[MembershipStatus][]Feature{
	MembershipActive: {
		FeatureBalance, FeatureAppeals, FeaturePayments, FeatureElectricity,
		FeatureAnnouncements, FeatureDocuments, FeatureMembersDocs,
		FeatureMembersNews, FeatureDecisions,
	},
	MembershipPending: {
		FeatureBalance, FeatureAppeals, FeaturePayments, FeatureElectricity,
		FeatureAnnouncements, FeatureDocuments,
	},
	MembershipNone: {
		FeatureBalance, FeatureAppeals, FeaturePayments, FeatureElectricity,
		FeatureAnnouncements, FeatureDocuments,
	},
	MembershipSuspended: {FeatureBalance, FeatureAppeals, FeaturePayments},
	MembershipExpelled:  {FeatureBalance, FeatureAppeals, FeaturePayments},
}

// CanSee reports whether a member in this status may see feature f.
// A nil membership behaves like MembershipNone.
func (m *Membership) CanSee(f Feature) bool {
	status := MembershipNone
	if m != nil && m.Status != "" {
		status = m.Status
	}
	for _, allowed := range featuresByStatus[status] {
		if allowed == f {
			return true
		}
	}
	return false
}

// Features lists every feature visible in the membership's status.
func (m *Membership) Features() []Feature {
	status := MembershipNone
	if m != nil && m.Status != "" {
		status = m.Status
	}
	out := make([]Feature, len(featuresByStatus[status]))
	copy(out, featuresByStatus[status])
	return out
}

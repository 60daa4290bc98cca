package instructions

// Every message carries a fine-grained type code; the code alone decides
// routing, display naming and notification behavior. The set of codes is
// closed: anything outside the tables below is CategoryUnknown and callers
// must handle it explicitly rather than fall through to a default.

type Category int

const (
	CategoryUnknown Category = iota
	CategoryChat
	CategoryTicket
	CategoryInquiry
	CategoryGroup
)

const (
	TypeSupportGroup     = 100
	TypeSupportPrivate   = 101
	TypeInternalTeamChat = 105

	TypeTicketTraining           = 110
	TypeTicketMigration          = 111
	TypeTicketSetup              = 112
	TypeTicketCorrection         = 113
	TypeTicketBugFix             = 114
	TypeTicketNewFeature         = 115
	TypeTicketFeatureEnhancement = 116
	TypeTicketBackendWorkaround  = 117

	TypeInquiryAccounts = 121
	TypeInquirySales    = 122
)

func CategoryOf(typeCode int) Category {
	switch {
	case typeCode == TypeSupportGroup:
		return CategoryGroup
	case typeCode == TypeSupportPrivate, typeCode == TypeInternalTeamChat:
		return CategoryChat
	case typeCode >= TypeTicketTraining && typeCode <= TypeTicketBackendWorkaround:
		return CategoryTicket
	case typeCode == TypeInquiryAccounts, typeCode == TypeInquirySales:
		return CategoryInquiry
	default:
		return CategoryUnknown
	}
}

var routeByType = map[int]string{
	TypeSupportGroup:             "support-group",
	TypeSupportPrivate:           "support-private",
	TypeInternalTeamChat:         "internal-team-chat",
	TypeTicketTraining:           "ticket/training",
	TypeTicketMigration:          "ticket/migration",
	TypeTicketSetup:              "ticket/setup",
	TypeTicketCorrection:         "ticket/correction",
	TypeTicketBugFix:             "ticket/bug-fix",
	TypeTicketNewFeature:         "ticket/new-feature",
	TypeTicketFeatureEnhancement: "ticket/feature-enhancement",
	TypeTicketBackendWorkaround:  "ticket/backend-workaround",
	TypeInquiryAccounts:          "inquiry/accounts",
	TypeInquirySales:             "inquiry/sales",
}

// RouteFor maps a type code to the creation/reply route. Unknown codes map
// to "" and the caller must treat the entry as non-actionable.
func RouteFor(typeCode int) string {
	return routeByType[typeCode]
}

// TypeCodeForRoute is the inverse lookup used by the POST /instructions/{route}
// dispatch. Returns 0 for an unknown route.
func TypeCodeForRoute(route string) int {
	for code, r := range routeByType {
		if r == route {
			return code
		}
	}
	return 0
}

var displayNameByType = map[int]string{
	TypeSupportGroup:             "Support Group",
	TypeSupportPrivate:           "Private Support",
	TypeInternalTeamChat:         "Internal Team",
	TypeTicketTraining:           "Training",
	TypeTicketMigration:          "Migration",
	TypeTicketSetup:              "Setup",
	TypeTicketCorrection:         "Correction",
	TypeTicketBugFix:             "Bug Fix",
	TypeTicketNewFeature:         "New Feature",
	TypeTicketFeatureEnhancement: "Feature Enhancement",
	TypeTicketBackendWorkaround:  "Backend Workaround",
	TypeInquiryAccounts:          "Accounts Inquiry",
	TypeInquirySales:             "Sales Inquiry",
}

func DisplayNameFor(typeCode int) string {
	if n, ok := displayNameByType[typeCode]; ok {
		return n
	}
	return "Unknown"
}

var avatarClassByCategory = map[Category]string{
	CategoryChat:    "avatar-chat",
	CategoryTicket:  "avatar-ticket",
	CategoryInquiry: "avatar-inquiry",
	CategoryGroup:   "avatar-group",
	CategoryUnknown: "avatar-unknown",
}

func AvatarClassFor(typeCode int) string {
	return avatarClassByCategory[CategoryOf(typeCode)]
}

// TicketTypeCodes lists the ticket subtypes in code order.
func TicketTypeCodes() []int {
	return []int{
		TypeTicketTraining,
		TypeTicketMigration,
		TypeTicketSetup,
		TypeTicketCorrection,
		TypeTicketBugFix,
		TypeTicketNewFeature,
		TypeTicketFeatureEnhancement,
		TypeTicketBackendWorkaround,
	}
}

func InquiryTypeCodes() []int {
	return []int{TypeInquiryAccounts, TypeInquirySales}
}

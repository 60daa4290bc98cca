package instructions

import "testing"

func TestCategoryOf(t *testing.T) {
	cases := []struct {
		code int
		want Category
	}{
		{TypeSupportGroup, CategoryGroup},
		{TypeSupportPrivate, CategoryChat},
		{TypeInternalTeamChat, CategoryChat},
		{TypeTicketTraining, CategoryTicket},
		{TypeTicketBackendWorkaround, CategoryTicket},
		{TypeInquiryAccounts, CategoryInquiry},
		{TypeInquirySales, CategoryInquiry},
		{0, CategoryUnknown},
		{109, CategoryUnknown},
		{118, CategoryUnknown},
		{123, CategoryUnknown},
	}
	for _, tc := range cases {
		if got := CategoryOf(tc.code); got != tc.want {
			t.Errorf("CategoryOf(%d) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestRouteTableRoundTrip(t *testing.T) {
	for code, route := range routeByType {
		if got := TypeCodeForRoute(route); got != code {
			t.Errorf("TypeCodeForRoute(%q) = %d, want %d", route, got, code)
		}
	}
	if RouteFor(999) != "" {
		t.Errorf("unknown code must map to empty route")
	}
	if TypeCodeForRoute("no-such-route") != 0 {
		t.Errorf("unknown route must map to 0")
	}
}

func TestRemarksEncoding(t *testing.T) {
	raw, err := EncodeRemarks(Remarks{Kind: RemarksStructured, Priority: "high", UserRemarks: "asap"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	r := DecodeRemarks(TypeSupportPrivate, raw)
	if r.Kind != RemarksStructured || r.Priority != "high" || r.UserRemarks != "asap" {
		t.Fatalf("round trip: %+v", r)
	}

	// non-private types always decode as plain, even JSON-looking text
	r = DecodeRemarks(TypeTicketBugFix, raw)
	if r.Kind != RemarksPlain || r.Text != raw {
		t.Fatalf("ticket remarks must stay plain: %+v", r)
	}

	// legacy plain rows under the private type fall back gracefully
	r = DecodeRemarks(TypeSupportPrivate, "just a note")
	if r.Kind != RemarksPlain || r.Text != "just a note" {
		t.Fatalf("legacy fallback: %+v", r)
	}
}

func TestNormalizeDraftRemarks(t *testing.T) {
	out, err := NormalizeDraftRemarks(TypeSupportPrivate, " be quick ")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	r := DecodeRemarks(TypeSupportPrivate, out)
	if r.Kind != RemarksStructured || r.Priority != "normal" || r.UserRemarks != "be quick" {
		t.Fatalf("normalized: %+v", r)
	}

	// already-structured input passes through unchanged
	same, err := NormalizeDraftRemarks(TypeSupportPrivate, out)
	if err != nil || same != out {
		t.Fatalf("passthrough: %q vs %q err=%v", same, out, err)
	}

	// other types untouched
	plain, err := NormalizeDraftRemarks(TypeTicketSetup, "note")
	if err != nil || plain != "note" {
		t.Fatalf("plain: %q err=%v", plain, err)
	}
}

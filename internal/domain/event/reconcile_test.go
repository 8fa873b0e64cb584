package event

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSyncKeysComputesAddsAndRemoves(t *testing.T) {
	diff := SyncKeys([]string{"a", "b", "c"}, []string{"b", "c", "d"})
	if !reflect.DeepEqual(diff.ToRemove, []string{"a"}) {
		t.Fatalf("ToRemove = %v, want [a]", diff.ToRemove)
	}
	if !reflect.DeepEqual(diff.ToAdd, []string{"d"}) {
		t.Fatalf("ToAdd = %v, want [d]", diff.ToAdd)
	}

	// applying the diff and syncing again is a no-op
	again := SyncKeys([]string{"b", "c", "d"}, []string{"b", "c", "d"})
	if !again.Empty() {
		t.Fatalf("second Sync = %+v, want empty", again)
	}
}

func TestSyncEmptyDesiredRemovesEverything(t *testing.T) {
	diff := SyncKeys([]uint64{3, 9}, nil)
	if len(diff.ToAdd) != 0 || !reflect.DeepEqual(diff.ToRemove, []uint64{3, 9}) {
		t.Fatalf("Sync() = %+v", diff)
	}
}

func TestSyncCollapsesDuplicateDesiredKeys(t *testing.T) {
	type file struct {
		name string
		body string
	}
	desired := []file{{"IMG3.jpg", "first"}, {"img3.JPG", "second"}, {"img2.jpg", "kept"}}
	existing := []string{"img1.jpg", "img2.jpg"}

	diff := Sync(existing, desired, FileKey, func(f file) string { return FileKey(f.name) })
	if len(diff.ToAdd) != 1 || diff.ToAdd[0].body != "first" {
		t.Fatalf("ToAdd = %+v, want only first img3", diff.ToAdd)
	}
	if !reflect.DeepEqual(diff.ToRemove, []string{"img1.jpg"}) {
		t.Fatalf("ToRemove = %v", diff.ToRemove)
	}
}

func TestFileKeyIgnoresCaseAndDirectories(t *testing.T) {
	cases := map[string]string{
		"DR.pdf":                   "dr.pdf",
		"  uploads/2024/PR.PDF ":   "pr.pdf",
		`C:\Users\ops\photo 1.JPG`: "photo 1.jpg",
		"":                         "",
	}
	for in, want := range cases {
		if got := FileKey(in); got != want {
			t.Fatalf("FileKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClaimKeyNormalizesContent(t *testing.T) {
	a := NewClaimKey("Cargo", "  Broken   pallets ", decimal.RequireFromString("1200"))
	b := NewClaimKey("cargo", "broken pallets", decimal.RequireFromString("1200.00"))
	if a != b {
		t.Fatalf("claim keys differ: %+v vs %+v", a, b)
	}
	c := NewClaimKey("cargo", "broken pallets", decimal.RequireFromString("1200.01"))
	if a == c {
		t.Fatalf("claim keys with different amounts must differ")
	}
}

func TestLayoutKeyAndPublicURL(t *testing.T) {
	layout := Layout{Category: CategoryAccident, CompanyID: 42, SubCategory: SubAccidentDoc}
	key := layout.Key(7, "abc.pdf")
	if key != "Event/Accident/42/Accident_Doc/7/abc.pdf" {
		t.Fatalf("Key() = %q", key)
	}

	url := PublicURL("https://fleet.example.com/", key)
	if url != "https://fleet.example.com/Documents/Event/Accident/42/Accident_Doc/7/abc.pdf" {
		t.Fatalf("PublicURL() = %q", url)
	}
	if got := KeyFromReference("https://fleet.example.com", url); got != key {
		t.Fatalf("KeyFromReference(url) = %q, want %q", got, key)
	}
	if got := KeyFromReference("https://other.example.com", url); got != key {
		t.Fatalf("KeyFromReference(foreign url) = %q, want %q", got, key)
	}
	if got := KeyFromReference("", key); got != key {
		t.Fatalf("KeyFromReference(key) = %q", got)
	}
}

func TestCheckDetailRejectsMismatchedKind(t *testing.T) {
	p, err := ProfileFor(KindCitation)
	if err != nil {
		t.Fatalf("ProfileFor() error = %v", err)
	}
	if err := CheckDetail(p, TicketDetail{TicketNumber: "C-1", Status: "open"}); err != nil {
		t.Fatalf("CheckDetail(ticket for citation) error = %v", err)
	}
	if err := CheckDetail(p, WarningDetail{IssuedBy: "CHP"}); err == nil {
		t.Fatalf("CheckDetail(warning for citation) expected error")
	}
	if err := CheckDetail(p, nil); err == nil {
		t.Fatalf("CheckDetail(nil) expected error")
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" DOT-Inspection ")
	if err != nil || k != KindDotInspection {
		t.Fatalf("ParseKind() = %q, %v", k, err)
	}
	if _, err := ParseKind("crash"); err == nil {
		t.Fatalf("ParseKind(crash) expected error")
	}
}

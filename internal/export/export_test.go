package export

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/emersion/go-vcard"
	"github.com/google/go-cmp/cmp"
	"github.com/jhillyerd/enmime"
	"golang.org/x/text/encoding/charmap"

	"github.com/wesm/pstview/internal/mailstore"
	"github.com/wesm/pstview/internal/mailstore/mailstoretest"
)

type fakeMSG struct{ calls int }

func (f *fakeMSG) Convert(_ context.Context, msg mailstore.Message) ([]byte, error) {
	f.calls++
	return []byte("msg:" + msg.Subject()), nil
}

func actionLabels(actions []Action) []string {
	var out []string
	for _, a := range actions {
		out = append(out, a.Label)
	}
	return out
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Quarterly report", "Quarterly report"},
		{`a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"tab\there\nnewline", "tab_here_newline"},
		{"\x00\x1f", "__"},
		{"Grüße 日本", "Grüße 日本"},
		{"", ""},
	}
	for _, tt := range tests {
		got := SanitizeFilename(tt.input)
		if got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
		}
		if again := SanitizeFilename(got); again != got {
			t.Errorf("SanitizeFilename not idempotent: %q -> %q", got, again)
		}
	}
}

func TestSanitizeFilename_Total(t *testing.T) {
	var sb strings.Builder
	for r := rune(0); r < 0x80; r++ {
		sb.WriteRune(r)
	}
	got := SanitizeFilename(sb.String())
	if strings.ContainsAny(got, `<>:"/\|?*`) {
		t.Errorf("output contains forbidden character: %q", got)
	}
	for _, r := range got {
		if r < 0x20 {
			t.Errorf("output contains control character %U", r)
		}
	}
}

func TestResolver_Actions(t *testing.T) {
	note := &mailstoretest.Message{SubjectText: "Lunch: today?", Class: mailstore.ClassNote}
	contact := &mailstoretest.Message{SubjectText: "Bob", Class: mailstore.ClassContact, Contact: true, Display: "Bob Smith"}
	doc := &mailstoretest.Message{SubjectText: "Proposal", Class: "IPM.Document.Word.Document.12"}

	tests := []struct {
		name      string
		msg       mailstore.Message
		withMSG   bool
		storeOpen bool
		want      []string
	}{
		{"note with MSG", note, true, true, []string{"Export to MSG", "Export to EML"}},
		{"note without MSG", note, false, true, []string{"Export to EML"}},
		{"note with MSG but no store", note, true, false, []string{"Export to EML"}},
		{"contact with MSG", contact, true, true, []string{"Export to MSG", "Export to VCard"}},
		{"contact without MSG", contact, false, true, []string{"Export to VCard"}},
		{"document without MSG", doc, false, true, nil},
		{"document with MSG", doc, true, true, []string{"Export to MSG"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(nil)
			if tt.withMSG {
				r.MSG = &fakeMSG{}
			}
			got := actionLabels(r.Actions(tt.msg, tt.storeOpen))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Actions() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolver_ActionFields(t *testing.T) {
	msg := &mailstoretest.Message{SubjectText: "Re: a/b?", Class: mailstore.ClassNote}
	r := NewResolver(nil)
	r.MSG = &fakeMSG{}
	actions := r.Actions(msg, true)
	if len(actions) != 2 {
		t.Fatalf("len(actions) = %d, want 2", len(actions))
	}
	if actions[0].FileName != "Re_ a_b_.msg" || actions[0].MediaType != MediaOctetStream {
		t.Errorf("MSG action = %q %q", actions[0].FileName, actions[0].MediaType)
	}
	if actions[1].FileName != "Re_ a_b_.eml" || actions[1].MediaType != MediaRFC822 {
		t.Errorf("EML action = %q %q", actions[1].FileName, actions[1].MediaType)
	}
	data, err := actions[0].Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if string(data) != "msg:Re: a/b?" {
		t.Errorf("Run() = %q", data)
	}
}

func TestResolver_EmptySubjectFallsBack(t *testing.T) {
	msg := &mailstoretest.Message{Class: mailstore.ClassNote}
	actions := NewResolver(nil).Actions(msg, true)
	if len(actions) != 1 || actions[0].FileName != "untitled.eml" {
		t.Errorf("actions = %+v", actions)
	}
}

func TestResolver_NilMessage(t *testing.T) {
	if got := NewResolver(nil).Actions(nil, true); got != nil {
		t.Errorf("Actions(nil) = %v, want nil", got)
	}
}

func TestAction_Run_NilPayload(t *testing.T) {
	a := Action{Label: "Export", Provide: func(context.Context) ([]byte, error) { return nil, nil }}
	if _, err := a.Run(context.Background()); !errors.Is(err, ErrNoPayload) {
		t.Errorf("Run() error = %v, want ErrNoPayload", err)
	}
	boom := errors.New("boom")
	a.Provide = func(context.Context) ([]byte, error) { return nil, boom }
	if _, err := a.Run(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want boom", err)
	}
}

func TestEMLConverter(t *testing.T) {
	msg := &mailstoretest.Message{
		SubjectText: "Budget review",
		Class:       mailstore.ClassNote,
		From:        &mailstore.Contact{AddrType: "SMTP", Address: "alice@example.com", DisplayName: "Alice"},
		To: []mailstore.Recipient{
			{Contact: mailstore.Contact{Address: "bob@example.com", DisplayName: "Bob"}, Type: mailstore.RecipientTo},
			{Contact: mailstore.Contact{Address: "carol@example.com", DisplayName: "Carol"}, Type: mailstore.RecipientCc},
		},
		BodyText: "Numbers attached.",
		Files: []*mailstoretest.Attachment{
			{Name: "report", File: "report.csv", How: mailstore.AttachByValue, Payload: []byte("a,b\n1,2\n")},
			{Name: "missing", File: "missing.bin", How: mailstore.AttachByValue},
			{Name: "fwd", How: mailstore.AttachEmbedded, Nested: &mailstoretest.Message{
				SubjectText: "Nested subject", Class: mailstore.ClassNote, BodyText: "inner",
			}},
			{Name: "ole", How: mailstore.AttachOLE, Payload: []byte("x")},
		},
	}

	data, err := EMLConverter{}.Convert(context.Background(), msg)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	env, err := enmime.ReadEnvelope(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadEnvelope() error = %v", err)
	}
	if got := env.GetHeader("Subject"); got != "Budget review" {
		t.Errorf("Subject = %q", got)
	}
	for header, want := range map[string]string{"From": "alice@example.com", "To": "bob@example.com", "Cc": "carol@example.com"} {
		list, err := env.AddressList(header)
		if err != nil || len(list) != 1 || list[0].Address != want {
			t.Errorf("%s = %v (err %v), want %s", header, list, err, want)
		}
	}
	if strings.TrimSpace(env.Text) != "Numbers attached." {
		t.Errorf("Text = %q", env.Text)
	}
	var found bool
	for _, a := range env.Attachments {
		if a.FileName == "report.csv" {
			found = true
			if string(a.Content) != "a,b\n1,2\n" {
				t.Errorf("report.csv content = %q", a.Content)
			}
		}
		if a.FileName == "missing.bin" {
			t.Errorf("attachment without payload should be skipped")
		}
	}
	if !found {
		t.Errorf("report.csv not found among %d attachments", len(env.Attachments))
	}
	if !bytes.Contains(data, []byte("Subject: Nested subject")) {
		t.Errorf("embedded message not written")
	}
}

func TestEMLConverter_SinglePart(t *testing.T) {
	msg := &mailstoretest.Message{SubjectText: "Hello", Class: mailstore.ClassNote, BodyText: "Just text."}
	data, err := EMLConverter{}.Convert(context.Background(), msg)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	env, err := enmime.ReadEnvelope(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadEnvelope() error = %v", err)
	}
	if strings.TrimSpace(env.Text) != "Just text." {
		t.Errorf("Text = %q", env.Text)
	}
	if len(env.Attachments) != 0 {
		t.Errorf("Attachments = %d, want 0", len(env.Attachments))
	}
}

func TestEMLConverter_RecipientError(t *testing.T) {
	boom := errors.New("corrupt recipient table")
	msg := &mailstoretest.Message{Class: mailstore.ClassNote, DetailErr: boom}
	if _, err := (EMLConverter{}).Convert(context.Background(), msg); !errors.Is(err, boom) {
		t.Errorf("Convert() error = %v, want %v", err, boom)
	}
}

func TestVCardBuilder(t *testing.T) {
	msg := &mailstoretest.Message{
		SubjectText: "Bob Smith",
		Class:       mailstore.ClassContact,
		Contact:     true,
		Display:     "Bob Smith",
		Props: mailstore.Properties{
			"given_name":                "Bob",
			"surname":                   "Smith",
			"company_name":              "Acme",
			"email1_email_address":      "bob@acme.test",
			"mobile_telephone_number":   "+1 555 0100",
			"business_telephone_number": "",
		},
	}
	text, err := VCardBuilder{}.VCard(context.Background(), msg)
	if err != nil {
		t.Fatalf("VCard() error = %v", err)
	}
	card, err := vcard.NewDecoder(strings.NewReader(text)).Decode()
	if err != nil {
		t.Fatalf("Decode() error = %v\n%s", err, text)
	}
	checks := map[string]string{
		vcard.FieldVersion:       "4.0",
		vcard.FieldFormattedName: "Bob Smith",
		vcard.FieldEmail:         "bob@acme.test",
		vcard.FieldOrganization:  "Acme",
		vcard.FieldTelephone:     "+1 555 0100",
	}
	for field, want := range checks {
		if got := card.Value(field); got != want {
			t.Errorf("%s = %q, want %q", field, got, want)
		}
	}
	if n := card.Name(); n == nil || n.FamilyName != "Smith" || n.GivenName != "Bob" {
		t.Errorf("Name = %+v", n)
	}
}

func TestVCardBuilder_NotContact(t *testing.T) {
	msg := &mailstoretest.Message{Class: mailstore.ClassNote}
	if _, err := (VCardBuilder{}).VCard(context.Background(), msg); err == nil {
		t.Error("VCard() on a note should fail")
	}
}

func TestVCardAction_Transcodes(t *testing.T) {
	msg := &mailstoretest.Message{Class: mailstore.ClassContact, Contact: true, Display: "José"}
	actions := NewResolver(charmap.ISO8859_1).Actions(msg, false)
	if len(actions) != 1 {
		t.Fatalf("actions = %v", actionLabels(actions))
	}
	if actions[0].FileName != "José.vcf" || actions[0].MediaType != MediaVCard {
		t.Errorf("action = %q %q", actions[0].FileName, actions[0].MediaType)
	}
	data, err := actions[0].Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !bytes.Contains(data, []byte("FN:Jos\xe9")) {
		t.Errorf("payload not latin-1 encoded: %q", data)
	}
}

func TestDirSink_Deliver(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	sink := NewDirSink(dir, nil)
	ctx := context.Background()

	first, err := sink.Deliver(ctx, []byte("one"), "note.eml", MediaRFC822)
	if err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	second, err := sink.Deliver(ctx, []byte("two"), "note.eml", MediaRFC822)
	if err != nil {
		t.Fatalf("Deliver() second error = %v", err)
	}
	if filepath.Base(first) != "note.eml" || filepath.Base(second) != "note_2.eml" {
		t.Errorf("paths = %s, %s", first, second)
	}
	got, err := os.ReadFile(second)
	if err != nil || string(got) != "two" {
		t.Errorf("second file = %q, %v", got, err)
	}
	info, err := os.Stat(first)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		t.Errorf("file mode = %o, want owner-only", perm)
	}
}

func TestDirSink_NamesAndPayload(t *testing.T) {
	sink := NewDirSink(t.TempDir(), nil)
	ctx := context.Background()

	if _, err := sink.Deliver(ctx, nil, "x.bin", MediaOctetStream); !errors.Is(err, ErrNoPayload) {
		t.Errorf("Deliver(nil) error = %v, want ErrNoPayload", err)
	}
	path, err := sink.Deliver(ctx, []byte("card"), "Bob", MediaVCard)
	if err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if filepath.Base(path) != "Bob.vcf" {
		t.Errorf("path = %s, want Bob.vcf", path)
	}
	path, err = sink.Deliver(ctx, []byte{}, "../../etc/passwd", MediaOctetStream)
	if err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if filepath.Dir(path) != sink.Dir {
		t.Errorf("path escaped export dir: %s", path)
	}
	path, err = sink.Deliver(ctx, []byte("x"), "  ", MediaOctetStream)
	if err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if filepath.Base(path) != "untitled" {
		t.Errorf("path = %s, want untitled", path)
	}
}

func TestFormatBytesLong(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
	}
	for _, tt := range tests {
		if got := FormatBytesLong(tt.in); got != tt.want {
			t.Errorf("FormatBytesLong(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

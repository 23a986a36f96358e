package export

import (
	"context"
	"errors"
	"strings"

	"github.com/emersion/go-vcard"

	"github.com/wesm/pstview/internal/mailstore"
)

var errNotContact = errors.New("message is not a contact")

// Property keys read from a contact's snapshot, in preference order.
var (
	keysGivenName  = []string{"given_name"}
	keysSurname    = []string{"surname"}
	keysMiddleName = []string{"middle_name"}
	keysPrefix     = []string{"display_name_prefix"}
	keysSuffix     = []string{"generation"}
	keysCompany    = []string{"company_name"}
	keysJobTitle   = []string{"title"}
	keysNote       = []string{"body"}
	keysEmails     = []string{"email1_email_address", "email2_email_address", "email3_email_address"}
	keysPhones     = [][2]string{
		{"business_telephone_number", "work"},
		{"home_telephone_number", "home"},
		{"mobile_telephone_number", "cell"},
	}
)

// VCardBuilder renders a contact item as a vCard 4.0 document.
type VCardBuilder struct{}

// VCard implements VCardConverter.
func (VCardBuilder) VCard(ctx context.Context, msg mailstore.Message) (string, error) {
	if !msg.IsContact() {
		return "", errNotContact
	}
	p := msg.Properties()

	card := make(vcard.Card)
	fn := strings.TrimSpace(msg.DisplayName())
	if fn == "" {
		fn = "untitled"
	}
	card.SetValue(vcard.FieldFormattedName, fn)
	card.AddName(&vcard.Name{
		FamilyName:      p.First(keysSurname...),
		GivenName:       p.First(keysGivenName...),
		AdditionalName:  p.First(keysMiddleName...),
		HonorificPrefix: p.First(keysPrefix...),
		HonorificSuffix: p.First(keysSuffix...),
	})
	for _, k := range keysEmails {
		if v := p[k]; v != "" {
			card.AddValue(vcard.FieldEmail, v)
		}
	}
	for _, kt := range keysPhones {
		if v := p[kt[0]]; v != "" {
			card.Add(vcard.FieldTelephone, &vcard.Field{
				Value:  v,
				Params: vcard.Params{vcard.ParamType: {kt[1]}},
			})
		}
	}
	if v := p.First(keysCompany...); v != "" {
		card.SetValue(vcard.FieldOrganization, v)
	}
	if v := p.First(keysJobTitle...); v != "" {
		card.SetValue(vcard.FieldTitle, v)
	}
	if v := p.First(keysNote...); v != "" {
		card.SetValue(vcard.FieldNote, v)
	}
	vcard.ToV4(card)

	var sb strings.Builder
	if err := vcard.NewEncoder(&sb).Encode(card); err != nil {
		return "", err
	}
	return sb.String(), nil
}

package handlers

import (
	"strings"

	"github.com/HARIOM-JHA01/addmy-partner/models"
	"github.com/tidwall/gjson"
)

// registrationPhrases mark a login that created the partner. Bare
// "registered" is not enough: "already registered" means returning.
var registrationPhrases = []string{
	"registered successfully",
	"successfully registered",
	"registration successful",
	"registration completed",
}

type loginOutcome int

const (
	returningPartner loginOutcome = iota
	newPartner
)

func (o loginOutcome) String() string {
	if o == newPartner {
		return "new"
	}
	return "returning"
}

// classifyLogin decides whether a login created the partner. An explicit
// data.status of "new" or "returning" is authoritative; older backends are
// recognised by registration flags, a registration message, or a partner that
// has never held any credits.
func classifyLogin(raw []byte, partner models.Partner) loginOutcome {
	body := gjson.ParseBytes(raw)

	switch strings.ToLower(body.Get("data.status").String()) {
	case "new":
		return newPartner
	case "returning":
		return returningPartner
	}

	for _, path := range []string{"data.isNewPartner", "data.isNew", "isNewPartner", "data.partner.isNew"} {
		if v := body.Get(path); v.Exists() {
			if v.Bool() {
				return newPartner
			}
			return returningPartner
		}
	}

	msg := strings.ToLower(body.Get("message").String())
	for _, phrase := range registrationPhrases {
		if strings.Contains(msg, phrase) {
			return newPartner
		}
	}

	if partner.HasNoCredits() {
		return newPartner
	}
	return returningPartner
}

package flow

import (
	"strings"
	"unicode/utf8"
)

// ContactOption is one destination offered on the send-code screen
type ContactOption struct {
	Method  Method
	Contact string
	Masked  string
}

// MaskContact hides most of a phone number or email address.
// Phones keep their last four digits, emails keep the first letter and the domain.
func MaskContact(method Method, contact string) string {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return ""
	}

	if method == MethodEmail {
		at := strings.LastIndex(contact, "@")
		if at <= 0 {
			return "***"
		}
		first, size := utf8.DecodeRuneInString(contact)
		if first == utf8.RuneError && size <= 1 {
			return "***" + contact[at:]
		}
		return string(first) + "***" + contact[at:]
	}

	var digits []rune
	for _, r := range contact {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) <= 4 {
		return "***" + string(digits)
	}
	return "***" + string(digits[len(digits)-4:])
}

// ContactOptions lists every destination a code can be sent to: a call and a
// text when a phone is on file, an email when an address is. Options for
// preferred come first; the rest keep call, sms, email order.
func ContactOptions(preferred Method, phone, email string) []ContactOption {
	phone = strings.TrimSpace(phone)
	email = strings.TrimSpace(email)

	var all []ContactOption
	if phone != "" {
		all = append(all,
			ContactOption{Method: MethodCall, Contact: phone, Masked: MaskContact(MethodCall, phone)},
			ContactOption{Method: MethodSMS, Contact: phone, Masked: MaskContact(MethodSMS, phone)},
		)
	}
	if email != "" {
		all = append(all, ContactOption{Method: MethodEmail, Contact: email, Masked: MaskContact(MethodEmail, email)})
	}

	options := make([]ContactOption, 0, len(all))
	for _, opt := range all {
		if opt.Method == preferred {
			options = append(options, opt)
		}
	}
	for _, opt := range all {
		if opt.Method != preferred {
			options = append(options, opt)
		}
	}
	return options
}

package docgen

import "fmt"

const genericDisclaimer = "This draft is a starting point generated from public information about your website. It is not legal advice; have a qualified professional review it before publishing."

// fallbackDraft is the deterministic generic template copy substituted when
// the model output cannot be parsed.
func fallbackDraft(req DraftRequest) *Draft {
	company := req.CompanyName
	if company == "" {
		company = "the company"
	}
	var sections []Section
	switch req.DocType {
	case DocPrivacyPolicy:
		sections = []Section{
			{Heading: "Information We Collect", Body: fmt.Sprintf("%s collects information you provide directly, such as account details and content you submit, along with basic usage data needed to operate the service.", company)},
			{Heading: "How We Use Information", Body: "We use collected information to provide and improve the service, communicate with you, and meet legal obligations."},
			{Heading: "Sharing", Body: "We do not sell personal information. We share it only with service providers acting on our behalf or when required by law."},
			{Heading: "Data Retention", Body: "We retain personal information only as long as needed for the purposes described here, then delete or anonymize it."},
			{Heading: "Your Rights", Body: "Depending on your location, you may have rights to access, correct, or delete your personal information. Contact us to exercise them."},
			{Heading: "Contact", Body: fmt.Sprintf("Questions about this policy can be sent to %s through the contact details on our website.", company)},
		}
	case DocTermsOfService:
		sections = []Section{
			{Heading: "Acceptance of Terms", Body: fmt.Sprintf("By using %s you agree to these terms. If you do not agree, do not use the service.", company)},
			{Heading: "Use of the Service", Body: "You agree to use the service lawfully and not to interfere with its operation or other users' access."},
			{Heading: "Accounts", Body: "You are responsible for safeguarding your account credentials and for activity under your account."},
			{Heading: "Termination", Body: "We may suspend or terminate access for violations of these terms. You may stop using the service at any time."},
			{Heading: "Disclaimer of Warranties", Body: "The service is provided as-is without warranties of any kind, to the maximum extent permitted by law."},
			{Heading: "Changes", Body: "We may update these terms; continued use after changes take effect constitutes acceptance."},
		}
	case DocCookiePolicy:
		sections = []Section{
			{Heading: "What Cookies Are", Body: "Cookies are small text files stored by your browser that help websites function and remember preferences."},
			{Heading: "Cookies We Use", Body: fmt.Sprintf("%s uses strictly necessary cookies to operate the site and optional analytics cookies to understand usage.", company)},
			{Heading: "Managing Cookies", Body: "You can control or delete cookies through your browser settings. Blocking necessary cookies may break parts of the site."},
		}
	case DocRefundPolicy:
		sections = []Section{
			{Heading: "Eligibility", Body: fmt.Sprintf("%s offers refunds for purchases that do not work as described, requested within 14 days of payment.", company)},
			{Heading: "How to Request", Body: "Contact support with your order details. Approved refunds are returned to the original payment method."},
			{Heading: "Exclusions", Body: "Fees already consumed by usage and charges older than the refund window are not refundable."},
		}
	case DocDPA:
		sections = []Section{
			{Heading: "Roles", Body: fmt.Sprintf("For personal data processed on behalf of customers, %s acts as processor and the customer as controller.", company)},
			{Heading: "Processing Instructions", Body: "We process personal data only on documented customer instructions, including transfers, unless required by law."},
			{Heading: "Security", Body: "We apply appropriate technical and organizational measures to protect personal data against unauthorized access or loss."},
			{Heading: "Subprocessors", Body: "We engage subprocessors under equivalent data protection obligations and maintain a current list on request."},
		}
	}
	return &Draft{
		DocType:    req.DocType,
		Title:      docTypes[req.DocType],
		Sections:   sections,
		Disclaimer: genericDisclaimer,
	}
}

package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "embed"

	"quotewidget_backend/internal/quote"
	"quotewidget_backend/platform/logger"
	"quotewidget_backend/platform/phone"
)

// referralSourceNames maps the intake form's referral vocabulary onto the
// CRM's "How This Customer Found Out About Us" dropdown labels. Unknown
// values pass through unchanged.
var referralSourceNames = map[string]string{
	"google":    "Google",
	"nextdoor":  "Nextdoor",
	"referral":  "Referral",
	"facebook":  "Facebook",
	"yard_sign": "Yard Sign",
	"flyer":     "Flyer/Door Hanger",
	"other":     "Other",
}

//go:embed templates/confirmation_email.html
var confirmationEmailHTML string

var confirmationEmailTmpl = template.Must(template.New("confirmation").Parse(confirmationEmailHTML))

// Service is the CRM adapter: customer/property/estimate creation, relayed
// email and SMS, and global search. Remote failures become result values,
// never errors; only local defects raise.
type Service struct {
	store   *ConfigStore
	session *SessionManager
	client  *client
	log     *logger.Logger
	now     func() time.Time
}

// NewService wires the adapter over a config store and session manager.
func NewService(store *ConfigStore, session *SessionManager, baseURL string, log *logger.Logger) *Service {
	return &Service{
		store:   store,
		session: session,
		client:  newClient(baseURL),
		log:     log,
		now:     time.Now,
	}
}

// ProcessQuote runs the CRM leg of one submission: refresh the session,
// create the customer, then the property only if the customer succeeded,
// then relay the confirmation email to the new customer. A disabled
// integration short-circuits to {CopilotEnabled: false}.
func (s *Service) ProcessQuote(ctx context.Context, q *quote.Quote) Result {
	cfg := s.session.EnsureFresh(ctx)
	if !cfg.Enabled {
		return Result{CopilotEnabled: false}
	}

	result := Result{CopilotEnabled: true}

	if cfg.AutoCreateCustomer {
		customer := s.CreateCustomer(ctx, q, cfg)
		result.Customer = &customer

		if customer.Success && cfg.AutoCreateProperty {
			property := s.CreateProperty(ctx, customer.CustomerID, q, cfg)
			result.Property = &property
		}

		if customer.Success {
			email := s.SendQuoteConfirmationEmail(ctx, customer.CustomerID, q, cfg)
			result.EmailSent = email.Success
		}
	}

	return result
}

// CreateCustomer posts the customer-create form. The field set mirrors a
// captured working request; keys absent from our data stay present and
// empty because the CRM rejects sparse submissions.
func (s *Service) CreateCustomer(ctx context.Context, q *quote.Quote, cfg IntegrationConfig) OpResult {
	name := quote.ParseName(q.Name)
	addr := quote.ParseAddress(q.Address)
	notes := BuildCustomerNotes(q, q.SubmittedAt(s.now()))

	companyName := q.Name
	if companyName == "" {
		companyName = "New Lead"
	}

	referral := ""
	if q.ReferralSource != "" {
		referral = q.ReferralSource
		if named, ok := referralSourceNames[q.ReferralSource]; ok {
			referral = named
		}
	}

	state := addr.State
	if state == "" {
		state = cfg.DefaultState
	}
	if state == "" {
		state = "CO"
	}
	country := cfg.DefaultCountry
	if country == "" {
		country = "US"
	}

	form := url.Values{
		"lat":                          {""},
		"lng":                          {""},
		"title_mr":                     {"no"},
		"number":                       {""},
		"firstname":                    {name.FirstName},
		"lname":                        {name.LastName},
		"company_name":                 {companyName},
		"type":                         {"1"},
		"new-type":                     {""},
		"email":                        {q.Email},
		"mobile":                       {phone.Digits(q.Phone)},
		"tagslist":                     {""},
		"phone":                        {""},
		"ccemail2":                     {""},
		"ccemail3":                     {""},
		"custom_source_id":             {referral},
		"invoice_delivery_preference":  {"1"},
		"is_tax_exempt":                {"1"},
		"discount":                     {""},
		"sdate":                        {s.now().Format("Jan 02, 2006")},
		"desc":                         {notes},
		"appliesTo":                    {"customers"},
		"c_id":                         {"0"},
		"recoptions":                   {"d"},
		"daily_option":                 {"0"},
		"daily_days_count":             {""},
		"weekly_count":                 {"1"},
		"monthly_option":               {"1"},
		"month_day":                    {"1"},
		"month_count1":                 {"1"},
		"month_day_number":             {"first"},
		"month_week_day":               {"mon"},
		"month_count2":                 {"1"},
		"custom_inv_cust_settings":     {"1"},
		"custom_stamp_pdf_view":        {"1"},
		"custom_pastdue_terms":         {"30"},
		"custom_past_due_val":          {"0.00"},
		"custom_inv_due_date":          {"1"},
		"custom_credit_available_show": {"1"},
		"custom_inv_notes":             {""},
		"custom_inv_terms":             {""},
		"temporaryUploadIds":           {""},
		"tags":                         {""},
		"country":                      {country},
		"street":                       {addr.Street},
		"street2":                      {""},
		"county":                       {""},
		"city":                         {addr.City},
		"state":                        {state},
		"zip":                          {addr.Zip},
	}

	resp, err := s.client.postForm(ctx, "/customers/doAdd", form, cfg.Cookies, s.client.baseURL+"/customers/add")
	if err != nil {
		s.log.ExternalCallFailed("crm", "create_customer", err)
		return OpResult{Success: false, Error: err.Error()}
	}
	if !resp.StatusOK() || resp.ID() == "" {
		s.log.ExternalCallFailed("crm", "create_customer", fmt.Errorf("%s", resp.ErrMsg()))
		return OpResult{Success: false, Error: resp.ErrMsg(), Raw: resp.raw}
	}

	s.log.Info("crm_customer_created", "customer_id", resp.ID())
	return OpResult{Success: true, CustomerID: resp.ID()}
}

// CreateProperty posts the property-create form for an existing customer.
func (s *Service) CreateProperty(ctx context.Context, customerID string, q *quote.Quote, cfg IntegrationConfig) OpResult {
	addr := quote.ParseAddress(q.Address)

	state := addr.State
	if state == "" {
		state = cfg.DefaultState
	}
	if state == "" {
		state = "CO"
	}
	country := cfg.DefaultCountry
	if country == "" {
		country = "US"
	}

	// The CRM parses assets_size as a number; no thousands separators.
	size := ""
	if area := q.LawnArea(); area > 0 {
		size = strconv.FormatFloat(area, 'f', -1, 64)
	}

	form := url.Values{
		"customer":      {customerID},
		"asset_name":    {"Primary"},
		"street":        {addr.Street},
		"city":          {addr.City},
		"asset_state":   {state},
		"zip":           {addr.Zip},
		"asset_country": {country},
		"assets_size":   {size},
		"desc":          {BuildPropertyNotes(q)},
		"appliesTo":     {"assets"},
	}

	resp, err := s.client.postForm(ctx, "/assets/doAdd", form, cfg.Cookies, "")
	if err != nil {
		s.log.ExternalCallFailed("crm", "create_property", err)
		return OpResult{Success: false, Error: err.Error()}
	}
	if !resp.StatusOK() || resp.ID() == "" {
		s.log.ExternalCallFailed("crm", "create_property", fmt.Errorf("%s", resp.ErrMsg()))
		return OpResult{Success: false, Error: resp.ErrMsg(), Raw: resp.raw}
	}

	s.log.Info("crm_property_created", "property_id", resp.ID())
	return OpResult{Success: true, PropertyID: resp.ID()}
}

// EstimateLine is one priced line item on an estimate.
type EstimateLine struct {
	Quantity    int     `json:"quantity"`
	Cost        float64 `json:"cost"`
	Description string  `json:"description"`
}

// EstimateInput describes an estimate to create for an existing
// customer/property pair.
type EstimateInput struct {
	CustomerID string         `json:"customerId"`
	PropertyID string         `json:"propertyId"`
	DocNumber  string         `json:"docNumber"`
	Notes      string         `json:"notes"`
	Lines      []EstimateLine `json:"lines"`
}

// CreateEstimate posts the estimate-create form: today's date, a 30-day
// validity window, and repeated srv_id[]/qty[]/cost[]/desc[] groups per line.
func (s *Service) CreateEstimate(ctx context.Context, in EstimateInput) OpResult {
	cfg := s.session.EnsureFresh(ctx)
	if !cfg.Enabled {
		return OpResult{Success: false, Error: "integration disabled"}
	}

	today := s.now()
	form := url.Values{
		"customer":   {in.CustomerID},
		"asset_id":   {in.PropertyID},
		"e_num":      {in.DocNumber},
		"date":       {today.Format("Jan 2, 2006")},
		"valid_date": {today.Add(30 * 24 * time.Hour).Format("Jan 2, 2006")},
		"terms":      {""},
		"notes":      {in.Notes},
		"discount":   {"0"},
		"tax":        {"0"},
	}
	for _, line := range in.Lines {
		qty := line.Quantity
		if qty <= 0 {
			qty = 1
		}
		form.Add("srv_id[]", "")
		form.Add("qty[]", fmt.Sprintf("%d", qty))
		form.Add("cost[]", fmt.Sprintf("%g", line.Cost))
		form.Add("desc[]", line.Description)
	}

	resp, err := s.client.postForm(ctx, "/finances/estimates/doAdd", form, cfg.Cookies, s.client.baseURL+"/finances/estimates/add?c_id="+in.CustomerID)
	if err != nil {
		s.log.ExternalCallFailed("crm", "create_estimate", err)
		return OpResult{Success: false, Error: err.Error()}
	}
	if !resp.StatusOK() {
		s.log.ExternalCallFailed("crm", "create_estimate", fmt.Errorf("%s", resp.ErrMsg()))
		return OpResult{Success: false, Error: resp.ErrMsg(), Raw: resp.raw}
	}

	s.log.Info("crm_estimate_created", "estimate_id", resp.ID())
	return OpResult{Success: true, EstimateID: resp.ID()}
}

// SendEmail relays an HTML email to a customer through the CRM, keyed by the
// CRM customer ID rather than an address. The email endpoint answers
// status:"valid" on success.
func (s *Service) SendEmail(ctx context.Context, customerID, subject, htmlContent string, cfg IntegrationConfig) OpResult {
	if !cfg.Enabled {
		return OpResult{Success: false, Error: "integration disabled"}
	}

	companyID := cfg.CompanyID
	if companyID == "" {
		companyID = "29"
	}

	form := url.Values{
		"co_id":         {companyID},
		"to_customer[]": {customerID},
		"type":          {"email"},
		"subject":       {subject},
		"content":       {htmlContent},
		"emailcc":       {""},
		"attach_doc":    {"0"},
		"attach_est":    {"0"},
		"attach_inv":    {"0"},
	}

	resp, err := s.client.postForm(ctx, "/emails/sendMail", form, cfg.Cookies, s.client.baseURL+"/emails/emails")
	if err != nil {
		s.log.ExternalCallFailed("crm", "send_email", err)
		return OpResult{Success: false, Error: err.Error()}
	}
	if !resp.StatusIs("valid") {
		s.log.ExternalCallFailed("crm", "send_email", fmt.Errorf("%s", resp.ErrMsg()))
		return OpResult{Success: false, Error: resp.ErrMsg(), Raw: resp.raw}
	}

	s.log.Info("crm_email_sent", "customer_id", customerID)
	return OpResult{Success: true}
}

// SendSMS relays a text message to a customer through the CRM. The SMS
// endpoint answers status:"sent" on success.
func (s *Service) SendSMS(ctx context.Context, customerID, message string) OpResult {
	cfg := s.session.EnsureFresh(ctx)
	if !cfg.Enabled {
		return OpResult{Success: false, Error: "integration disabled"}
	}

	form := url.Values{
		"id":   {customerID},
		"msg":  {message},
		"type": {"customer"},
	}

	resp, err := s.client.postForm(ctx, "/sms/index/sendMsg", form, cfg.Cookies, s.client.baseURL+"/sms")
	if err != nil {
		s.log.ExternalCallFailed("crm", "send_sms", err)
		return OpResult{Success: false, Error: err.Error()}
	}
	if !resp.StatusIs("sent") {
		s.log.ExternalCallFailed("crm", "send_sms", fmt.Errorf("%s", resp.ErrMsg()))
		return OpResult{Success: false, Error: resp.ErrMsg(), Raw: resp.raw}
	}

	s.log.Info("crm_sms_sent", "customer_id", customerID)
	return OpResult{Success: true}
}

// SearchCustomer runs the CRM's global search, typically by email, returning
// the raw match list.
func (s *Service) SearchCustomer(ctx context.Context, query string) (json.RawMessage, error) {
	cfg := s.session.EnsureFresh(ctx)
	if !cfg.Enabled {
		return nil, fmt.Errorf("integration disabled")
	}
	return s.client.getJSON(ctx, "/search/global?q="+url.QueryEscape(query), cfg.Cookies)
}

// SendQuoteConfirmationEmail relays the branded "quote received" email to a
// freshly created customer.
func (s *Service) SendQuoteConfirmationEmail(ctx context.Context, customerID string, q *quote.Quote, cfg IntegrationConfig) OpResult {
	var body strings.Builder
	if err := confirmationEmailTmpl.Execute(&body, struct{ FirstName string }{q.FirstName()}); err != nil {
		return OpResult{Success: false, Error: err.Error()}
	}
	return s.SendEmail(ctx, customerID, "Quote Request Received - No Mow Worries", body.String(), cfg)
}

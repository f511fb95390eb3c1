package transform

import "time"

// System is stamped on every row after transformation. It is not decoded from records.
type System struct {
	SyncTime    time.Time `gorm:"column:_sync_time"`
	SoftDeleted bool      `gorm:"column:_deleted;not null;default:false"`
}

const (
	ColumnSyncTime = "_sync_time"
	ColumnDeleted  = "_deleted"
)

// Required columns are the non-pointer fields; pointer fields accept null or absence.

type Event struct {
	System                       `mapstructure:"-"`
	ID                           int64      `gorm:"column:id;primaryKey;autoIncrement:false" mapstructure:"id"`
	SalesforceCampaignID         *string    `gorm:"column:salesforce_campaign_id" mapstructure:"salesforce_campaign_id"`
	SplashThemeID                int64      `gorm:"column:splash_theme_id" mapstructure:"splash_theme_id"`
	SplashThemeName              string     `gorm:"column:splash_theme_name" mapstructure:"splash_theme_name"`
	EventTypeID                  int64      `gorm:"column:event_type_id" mapstructure:"event_type_id"`
	EventTypeName                string     `gorm:"column:event_type_name" mapstructure:"event_type_name"`
	EventSettingID               int64      `gorm:"column:event_setting_id" mapstructure:"event_setting_id"`
	Title                        string     `gorm:"column:title" mapstructure:"title"`
	DescriptionText              string     `gorm:"column:description_text" mapstructure:"description_text"`
	EventOwnerFirstName          string     `gorm:"column:event_owner_first_name" mapstructure:"event_owner_first_name"`
	EventOwnerLastName           string     `gorm:"column:event_owner_last_name" mapstructure:"event_owner_last_name"`
	EventOwnerEmail              string     `gorm:"column:event_owner_email" mapstructure:"event_owner_email" validate:"omitempty,email"`
	EventStart                   *time.Time `gorm:"column:event_start" mapstructure:"event_start"`
	EventEnd                     *time.Time `gorm:"column:event_end" mapstructure:"event_end"`
	HideEventTime                bool       `gorm:"column:hide_event_time" mapstructure:"hide_event_time"`
	VenueName                    string     `gorm:"column:venue_name" mapstructure:"venue_name"`
	Address                      string     `gorm:"column:address" mapstructure:"address"`
	City                         string     `gorm:"column:city" mapstructure:"city"`
	State                        string     `gorm:"column:state" mapstructure:"state"`
	ZipCode                      string     `gorm:"column:zip_code" mapstructure:"zip_code"`
	Country                      string     `gorm:"column:country" mapstructure:"country"`
	CreatedAt                    time.Time  `gorm:"column:created_at;autoCreateTime:false" mapstructure:"created_at"`
	ModifiedAt                   time.Time  `gorm:"column:modified_at" mapstructure:"modified_at"`
	Domain                       string     `gorm:"column:domain" mapstructure:"domain"`
	CustomDomain                 string     `gorm:"column:custom_domain" mapstructure:"custom_domain"`
	PaidForDomain                bool       `gorm:"column:paid_for_domain" mapstructure:"paid_for_domain"`
	Deleted                      bool       `gorm:"column:deleted" mapstructure:"deleted"`
	Published                    bool       `gorm:"column:published" mapstructure:"published"`
	Hub                          int64      `gorm:"column:hub" mapstructure:"hub"`
	FqURL                        string     `gorm:"column:fq_url" mapstructure:"fq_url"`
	MobileCheckInURL             string     `gorm:"column:mobile_check_in_url" mapstructure:"mobile_check_in_url"`
	EventAttendanceTypes         *string    `gorm:"column:event_attendance_types" mapstructure:"event_attendance_types"`
	GroupIDs                     *string    `gorm:"column:group_ids" mapstructure:"group_ids"`
	RegistrationUpdatingEnabled  bool       `gorm:"column:registration_updating_enabled" mapstructure:"registration_updating_enabled"`
	RegistrationUpdatingDeadline int64      `gorm:"column:registration_updating_deadline" mapstructure:"registration_updating_deadline"`
}

type EventType struct {
	System           `mapstructure:"-"`
	ID               int64   `gorm:"column:id;primaryKey;autoIncrement:false" mapstructure:"id"`
	Name             string  `gorm:"column:name" mapstructure:"name"`
	CodeName         *string `gorm:"column:code_name" mapstructure:"code_name"`
	SplashType       bool    `gorm:"column:splash_type" mapstructure:"splash_type"`
	PublicType       bool    `gorm:"column:public_type" mapstructure:"public_type"`
	IsEnterpriseType bool    `gorm:"column:is_enterprise_type" mapstructure:"is_enterprise_type"`
}

type EventStats struct {
	System  `mapstructure:"-"`
	EventID int64  `gorm:"column:event_id" mapstructure:"event_id" validate:"required"`
	Name    string `gorm:"column:name" mapstructure:"name"`
	Count   int64  `gorm:"column:count" mapstructure:"count"`
	ID      string `gorm:"column:id;primaryKey;size:64" mapstructure:"id" validate:"uuid"`
}

type EventSetting struct {
	System                 `mapstructure:"-"`
	ID                     int64      `gorm:"column:id;primaryKey;autoIncrement:false" mapstructure:"id"`
	HeaderImage            *string    `gorm:"column:header_image" mapstructure:"header_image"`
	RsvpOpen               bool       `gorm:"column:rsvp_open" mapstructure:"rsvp_open"`
	WaitList               bool       `gorm:"column:wait_list" mapstructure:"wait_list"`
	RsvpMethod             string     `gorm:"column:rsvp_method" mapstructure:"rsvp_method"`
	Lat                    *float64   `gorm:"column:lat" mapstructure:"lat"`
	Lng                    *float64   `gorm:"column:lng" mapstructure:"lng"`
	EventHashtag           *string    `gorm:"column:event_hashtag" mapstructure:"event_hashtag"`
	RsvpMax                int64      `gorm:"column:rsvp_max" mapstructure:"rsvp_max"`
	VenueTbd               int64      `gorm:"column:venue_tbd" mapstructure:"venue_tbd"`
	RsvpGuestDisplay       bool       `gorm:"column:rsvp_guest_display" mapstructure:"rsvp_guest_display"`
	RsvpClosedState        string     `gorm:"column:rsvp_closed_state" mapstructure:"rsvp_closed_state"`
	RsvpClosedAt           *time.Time `gorm:"column:rsvp_closed_at" mapstructure:"rsvp_closed_at"`
	RsvpClosedTeamNotified bool       `gorm:"column:rsvp_closed_team_notified" mapstructure:"rsvp_closed_team_notified"`
	PagePrivacyType        string     `gorm:"column:page_privacy_type" mapstructure:"page_privacy_type"`
	EventHost              string     `gorm:"column:event_host" mapstructure:"event_host"`
	ButtonClosedMessage    string     `gorm:"column:button_closed_message" mapstructure:"button_closed_message"`
	Autosave               bool       `gorm:"column:autosave" mapstructure:"autosave"`
}

type EventTriggeredEmail struct {
	System                    `mapstructure:"-"`
	EventID                   int64   `gorm:"column:event_id" mapstructure:"event_id" validate:"required"`
	EventSettingID            int64   `gorm:"column:event_setting_id" mapstructure:"event_setting_id"`
	Trigger                   string  `gorm:"column:trigger" mapstructure:"trigger"`
	Subject                   *string `gorm:"column:subject" mapstructure:"subject"`
	Content                   *string `gorm:"column:content" mapstructure:"content"`
	IncludeCalendarAttachment *int64  `gorm:"column:include_calendar_attachment" mapstructure:"include_calendar_attachment"`
	IncludePdfAttachment      *int64  `gorm:"column:include_pdf_attachment" mapstructure:"include_pdf_attachment"`
	IncludeInvoicePdf         *int64  `gorm:"column:include_invoice_pdf" mapstructure:"include_invoice_pdf"`
	PdfContent                *string `gorm:"column:pdf_content" mapstructure:"pdf_content"`
	UseDefaultConfirmation    *int64  `gorm:"column:use_default_confirmation" mapstructure:"use_default_confirmation"`
	Active                    *int64  `gorm:"column:active" mapstructure:"active"`
	EventMessageID            *int64  `gorm:"column:event_message_id" mapstructure:"event_message_id"`
	EventMessageLinkedToTheme *int64  `gorm:"column:event_message_linked_to_theme" mapstructure:"event_message_linked_to_theme"`
	ID                        string  `gorm:"column:id;primaryKey;size:64" mapstructure:"id"`
}

type EventCustomQuestion struct {
	System           `mapstructure:"-"`
	EventID          int64  `gorm:"column:event_id" mapstructure:"event_id" validate:"required"`
	EventSettingID   int64  `gorm:"column:event_setting_id" mapstructure:"event_setting_id"`
	CustomQuestionID *int64 `gorm:"column:custom_question_id" mapstructure:"custom_question_id"`
	Type             string `gorm:"column:type" mapstructure:"type"`
	Name             string `gorm:"column:name" mapstructure:"name"`
	ColumnName       string `gorm:"column:column_name" mapstructure:"column_name"`
	Required         bool   `gorm:"column:required" mapstructure:"required"`
	ID               string `gorm:"column:id;primaryKey;size:64" mapstructure:"id" validate:"uuid"`
}

type EventTicketType struct {
	System       `mapstructure:"-"`
	EventID      int64  `gorm:"column:event_id" mapstructure:"event_id" validate:"required"`
	TicketTypeID int64  `gorm:"column:ticket_type_id" mapstructure:"ticket_type_id" validate:"required"`
	Name         string `gorm:"column:name" mapstructure:"name"`
	Description  string `gorm:"column:description" mapstructure:"description"`
	Active       bool   `gorm:"column:active" mapstructure:"active"`
	ID           string `gorm:"column:id;primaryKey;size:64" mapstructure:"id" validate:"uuid"`
}

type SplashTheme struct {
	System       `mapstructure:"-"`
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement:false" mapstructure:"id"`
	Name         string    `gorm:"column:name" mapstructure:"name"`
	Abbr         *string   `gorm:"column:abbr" mapstructure:"abbr"`
	ImageURL     *string   `gorm:"column:image_url" mapstructure:"image_url"`
	ThumbnailURL *string   `gorm:"column:thumbnail_url" mapstructure:"thumbnail_url"`
	Sort         int64     `gorm:"column:sort" mapstructure:"sort"`
	Active       bool      `gorm:"column:active" mapstructure:"active"`
	Created      time.Time `gorm:"column:created" mapstructure:"created"`
}

type Contact struct {
	System               `mapstructure:"-"`
	ID                   int64      `gorm:"column:id;primaryKey;autoIncrement:false" mapstructure:"id"`
	SalesforceID         *string    `gorm:"column:salesforce_id" mapstructure:"salesforce_id"`
	SalesforceObjectType *string    `gorm:"column:salesforce_object_type" mapstructure:"salesforce_object_type"`
	FirstName            string     `gorm:"column:first_name" mapstructure:"first_name"`
	LastName             string     `gorm:"column:last_name" mapstructure:"last_name"`
	Title                *string    `gorm:"column:title" mapstructure:"title"`
	PrimaryEmail         string     `gorm:"column:primary_email" mapstructure:"primary_email" validate:"omitempty,email"`
	OrganizationName     *string    `gorm:"column:organization_name" mapstructure:"organization_name"`
	Phone                *string    `gorm:"column:phone" mapstructure:"phone"`
	Unsubscribed         bool       `gorm:"column:unsubscribed" mapstructure:"unsubscribed"`
	Createdate           time.Time  `gorm:"column:createdate" mapstructure:"createdate"`
	Modifydate           time.Time  `gorm:"column:modifydate" mapstructure:"modifydate"`
	Deleted              bool       `gorm:"column:deleted" mapstructure:"deleted"`
	Vip                  bool       `gorm:"column:vip" mapstructure:"vip"`
	Bounced              bool       `gorm:"column:bounced" mapstructure:"bounced"`
	BouncedEvent         *string    `gorm:"column:bounced_event" mapstructure:"bounced_event"`
	BouncedOn            *time.Time `gorm:"column:bounced_on" mapstructure:"bounced_on"`
	BouncedReason        *string    `gorm:"column:bounced_reason" mapstructure:"bounced_reason"`
	InvalidEmail         bool       `gorm:"column:invalid_email" mapstructure:"invalid_email"`
}

// CustomQuestion unifies event and ticket-type questions under one table.
type CustomQuestion struct {
	System           `mapstructure:"-"`
	ObjectID         int64   `gorm:"column:object_id" mapstructure:"object_id" validate:"required"`
	ObjectType       string  `gorm:"column:object_type" mapstructure:"object_type" validate:"oneof=event ticket_type"`
	Type             string  `gorm:"column:type" mapstructure:"type"`
	Name             string  `gorm:"column:name" mapstructure:"name"`
	ColumnName       string  `gorm:"column:column_name" mapstructure:"column_name"`
	CustomQuestionID *int64  `gorm:"column:custom_question_id" mapstructure:"custom_question_id"`
	Required         bool    `gorm:"column:required" mapstructure:"required"`
	Values           *string `gorm:"column:values" mapstructure:"values"`
	SelectedValues   *string `gorm:"column:selected_values" mapstructure:"selected_values"`
	Deleted          *bool   `gorm:"column:deleted" mapstructure:"deleted"`
	ExternalLink     *string `gorm:"column:external_link" mapstructure:"external_link"`
	Protected        *bool   `gorm:"column:protected" mapstructure:"protected"`
	SourceID         string  `gorm:"column:source_id;size:64" mapstructure:"source_id" validate:"uuid"`
	ID               string  `gorm:"column:id;primaryKey;size:64" mapstructure:"id" validate:"uuid"`
}

type TicketType struct {
	System            `mapstructure:"-"`
	ID                int64  `gorm:"column:id;primaryKey;autoIncrement:false" mapstructure:"id"`
	Name              string `gorm:"column:name" mapstructure:"name"`
	Description       string `gorm:"column:description" mapstructure:"description"`
	Price             int64  `gorm:"column:price" mapstructure:"price"`
	Quantity          int64  `gorm:"column:quantity" mapstructure:"quantity"`
	QuantitySold      int64  `gorm:"column:quantity_sold" mapstructure:"quantity_sold"`
	SoldOut           bool   `gorm:"column:sold_out" mapstructure:"sold_out"`
	Active            bool   `gorm:"column:active" mapstructure:"active"`
	OrderMin          int64  `gorm:"column:order_min" mapstructure:"order_min"`
	OrderMax          int64  `gorm:"column:order_max" mapstructure:"order_max"`
	FeePaidByBuyer    bool   `gorm:"column:fee_paid_by_buyer" mapstructure:"fee_paid_by_buyer"`
	Sort              int64  `gorm:"column:sort" mapstructure:"sort"`
	CollectRsvpFields int64  `gorm:"column:collect_rsvp_fields" mapstructure:"collect_rsvp_fields"`
	NonDollar         int64  `gorm:"column:non_dollar" mapstructure:"non_dollar"`
	ExpiresLength     int64  `gorm:"column:expires_length" mapstructure:"expires_length"`
	NestedTicket      bool   `gorm:"column:nested_ticket" mapstructure:"nested_ticket"`
	ShowRemaining     bool   `gorm:"column:show_remaining" mapstructure:"show_remaining"`
	OpenPrice         bool   `gorm:"column:open_price" mapstructure:"open_price"`
	OpenPriceMin      int64  `gorm:"column:open_price_min" mapstructure:"open_price_min"`
	OpenPriceMax      int64  `gorm:"column:open_price_max" mapstructure:"open_price_max"`
	AddGuestName      bool   `gorm:"column:add_guest_name" mapstructure:"add_guest_name"`
}

type TicketOrder struct {
	System                `mapstructure:"-"`
	ID                    int64     `gorm:"column:id;primaryKey;autoIncrement:false" mapstructure:"id"`
	ContactID             int64     `gorm:"column:contact_id" mapstructure:"contact_id"`
	TicketTypeID          int64     `gorm:"column:ticket_type_id" mapstructure:"ticket_type_id"`
	TicketTypeName        string    `gorm:"column:ticket_type_name" mapstructure:"ticket_type_name"`
	CurrencyID            int64     `gorm:"column:currency_id" mapstructure:"currency_id"`
	CurrencyCode          string    `gorm:"column:currency_code" mapstructure:"currency_code"`
	CurrencyName          string    `gorm:"column:currency_name" mapstructure:"currency_name"`
	OrderNumber           string    `gorm:"column:order_number" mapstructure:"order_number"`
	Status                string    `gorm:"column:status" mapstructure:"status"`
	Created               time.Time `gorm:"column:created" mapstructure:"created"`
	Placed                time.Time `gorm:"column:placed" mapstructure:"placed"`
	Quantity              int64     `gorm:"column:quantity" mapstructure:"quantity"`
	Price                 int64     `gorm:"column:price" mapstructure:"price"`
	Total                 int64     `gorm:"column:total" mapstructure:"total"`
	ForeignPrice          int64     `gorm:"column:foreign_price" mapstructure:"foreign_price"`
	ForeignTotal          int64     `gorm:"column:foreign_total" mapstructure:"foreign_total"`
	TicketOrderDiscountID *int64    `gorm:"column:ticket_order_discount_id" mapstructure:"ticket_order_discount_id"`
	FlatDiscount          *int64    `gorm:"column:flat_discount" mapstructure:"flat_discount"`
	PercentDiscount       *float64  `gorm:"column:percent_discount" mapstructure:"percent_discount"`
	DiscountCode          *string   `gorm:"column:discount_code" mapstructure:"discount_code"`
	Tax                   int64     `gorm:"column:tax" mapstructure:"tax"`
	StripeFee             int64     `gorm:"column:stripe_fee" mapstructure:"stripe_fee"`
	FeesOwed              int64     `gorm:"column:fees_owed" mapstructure:"fees_owed"`
	FeesPaid              int64     `gorm:"column:fees_paid" mapstructure:"fees_paid"`
	FeeRefunded           int64     `gorm:"column:fee_refunded" mapstructure:"fee_refunded"`
	AmountRefunded        int64     `gorm:"column:amount_refunded" mapstructure:"amount_refunded"`
	Email                 string    `gorm:"column:email" mapstructure:"email"`
	CardholderName        *string   `gorm:"column:cardholder_name" mapstructure:"cardholder_name"`
}

type TicketSale struct {
	System         `mapstructure:"-"`
	ID             int64  `gorm:"column:id;primaryKey;autoIncrement:false" mapstructure:"id"`
	TicketTypeID   int64  `gorm:"column:ticket_type_id" mapstructure:"ticket_type_id"`
	TicketTypeName string `gorm:"column:ticket_type_name" mapstructure:"ticket_type_name"`
	TicketOrderID  int64  `gorm:"column:ticket_order_id" mapstructure:"ticket_order_id"`
	Quantity       int64  `gorm:"column:quantity" mapstructure:"quantity"`
	UnitPrice      int64  `gorm:"column:unit_price" mapstructure:"unit_price"`
	TotalPrice     int64  `gorm:"column:total_price" mapstructure:"total_price"`
	IsRefunded     bool   `gorm:"column:is_refunded" mapstructure:"is_refunded"`
}

// TicketTypeDiscount links a ticket type to a discount seen on one of its orders.
type TicketTypeDiscount struct {
	System                `mapstructure:"-"`
	TicketTypeID          int64  `gorm:"column:ticket_type_id" mapstructure:"ticket_type_id" validate:"required"`
	TicketOrderDiscountID int64  `gorm:"column:ticket_order_discount_id" mapstructure:"ticket_order_discount_id" validate:"required"`
	ID                    string `gorm:"column:id;primaryKey;size:64" mapstructure:"id" validate:"uuid"`
}

type TicketOrderDiscount struct {
	System          `mapstructure:"-"`
	ID              int64   `gorm:"column:id;primaryKey;autoIncrement:false" mapstructure:"id"`
	FlatDiscount    int64   `gorm:"column:flat_discount" mapstructure:"flat_discount"`
	PercentDiscount float64 `gorm:"column:percent_discount" mapstructure:"percent_discount"`
	Name            *string `gorm:"column:name" mapstructure:"name"`
	Code            string  `gorm:"column:code" mapstructure:"code"`
}

type TicketTypeCustomQuestion struct {
	System           `mapstructure:"-"`
	TicketTypeID     int64  `gorm:"column:ticket_type_id" mapstructure:"ticket_type_id" validate:"required"`
	CustomQuestionID *int64 `gorm:"column:custom_question_id" mapstructure:"custom_question_id"`
	Type             string `gorm:"column:type" mapstructure:"type"`
	Name             string `gorm:"column:name" mapstructure:"name"`
	ColumnName       string `gorm:"column:column_name" mapstructure:"column_name"`
	Required         bool   `gorm:"column:required" mapstructure:"required"`
	ID               string `gorm:"column:id;primaryKey;size:64" mapstructure:"id" validate:"uuid"`
}

type GroupContact struct {
	System                     `mapstructure:"-"`
	ID                         int64     `gorm:"column:id;primaryKey;autoIncrement:false" mapstructure:"id"`
	ContactID                  int64     `gorm:"column:contact_id" mapstructure:"contact_id"`
	SalesforceCampaignMemberID *string   `gorm:"column:salesforce_campaign_member_id" mapstructure:"salesforce_campaign_member_id"`
	EventID                    *int64    `gorm:"column:event_id" mapstructure:"event_id"`
	EventRsvpID                *int64    `gorm:"column:event_rsvp_id" mapstructure:"event_rsvp_id"`
	FirstName                  *string   `gorm:"column:first_name" mapstructure:"first_name"`
	LastName                   *string   `gorm:"column:last_name" mapstructure:"last_name"`
	Email                      *string   `gorm:"column:email" mapstructure:"email" validate:"omitempty,email"`
	Status                     string    `gorm:"column:status" mapstructure:"status"`
	Created                    time.Time `gorm:"column:created" mapstructure:"created"`
	Modified                   time.Time `gorm:"column:modified" mapstructure:"modified"`
	Deleted                    bool      `gorm:"column:deleted" mapstructure:"deleted"`
}

type GroupContactEventRSVP struct {
	System         `mapstructure:"-"`
	ID             int64      `gorm:"column:id;primaryKey;autoIncrement:false" mapstructure:"id"`
	EventID        int64      `gorm:"column:event_id" mapstructure:"event_id"`
	GroupContactID int64      `gorm:"column:group_contact_id" mapstructure:"group_contact_id"`
	Name           string     `gorm:"column:name" mapstructure:"name"`
	Attending      bool       `gorm:"column:attending" mapstructure:"attending"`
	DateRsvped     time.Time  `gorm:"column:date_rsvped" mapstructure:"date_rsvped"`
	CheckedIn      *time.Time `gorm:"column:checked_in" mapstructure:"checked_in"`
	CheckedOut     *time.Time `gorm:"column:checked_out" mapstructure:"checked_out"`
	PlusOne        int64      `gorm:"column:plus_one" mapstructure:"plus_one"`
	Created        time.Time  `gorm:"column:created" mapstructure:"created"`
	Modified       time.Time  `gorm:"column:modified" mapstructure:"modified"`
	Deleted        int64      `gorm:"column:deleted" mapstructure:"deleted"`
	TicketSaleID   *int64     `gorm:"column:ticket_sale_id" mapstructure:"ticket_sale_id"`
	TicketNumber   *string    `gorm:"column:ticket_number" mapstructure:"ticket_number"`
	Vip            bool       `gorm:"column:vip" mapstructure:"vip"`
	Waitlist       bool       `gorm:"column:waitlist" mapstructure:"waitlist"`
	QrURL          string     `gorm:"column:qr_url" mapstructure:"qr_url"`
	UnsubTag       *string    `gorm:"column:unsub_tag" mapstructure:"unsub_tag"`
	Unsubscribed   bool       `gorm:"column:unsubscribed" mapstructure:"unsubscribed"`
}

type GroupContactAnswer struct {
	System         `mapstructure:"-"`
	EventID        *int64 `gorm:"column:event_id" mapstructure:"event_id"`
	GroupContactID int64  `gorm:"column:group_contact_id" mapstructure:"group_contact_id" validate:"required"`
	QuestionID     int64  `gorm:"column:question_id" mapstructure:"question_id" validate:"required"`
	Answer         string `gorm:"column:answer" mapstructure:"answer"`
	ID             string `gorm:"column:id;primaryKey;size:64" mapstructure:"id" validate:"uuid"`
}

type GroupContactEmailCampaignStatus struct {
	System          `mapstructure:"-"`
	EventID         *int64 `gorm:"column:event_id" mapstructure:"event_id"`
	GroupContactID  int64  `gorm:"column:group_contact_id" mapstructure:"group_contact_id" validate:"required"`
	EmailCampaignID int64  `gorm:"column:email_campaign_id" mapstructure:"email_campaign_id" validate:"required"`
	Status          string `gorm:"column:status" mapstructure:"status"`
	ID              string `gorm:"column:id;primaryKey;size:64" mapstructure:"id"`
}

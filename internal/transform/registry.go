package transform

import (
	"github.com/spyai-labs/etl-gcp-splash/internal/extract"
)

// Transformer turns one flattened collection into rows of one model.
type Transformer struct {
	Model *Model
	Steps []Step
}

var (
	EventModel               = NewModel("event", Event{})
	EventTypeModel           = NewModel("event_type", EventType{})
	EventStatsModel          = NewModel("event_stats", EventStats{}, Synthetic{Field: "id", Basis: []string{"event_id", "name"}})
	EventSettingModel        = NewModel("event_setting", EventSetting{})
	EventTriggeredEmailModel = NewModel("event_triggered_email", EventTriggeredEmail{}, Synthetic{Field: "id", Basis: []string{"event_id", "trigger"}})
	EventCustomQuestionModel = NewModel("event_custom_question", EventCustomQuestion{}, Synthetic{Field: "id", Basis: []string{"event_id", "column_name"}})
	EventTicketTypeModel     = NewModel("event_ticket_type", EventTicketType{}, Synthetic{Field: "id", Basis: []string{"event_id", "ticket_type_id"}})
	SplashThemeModel         = NewModel("splash_theme", SplashTheme{})
	ContactModel             = NewModel("contact", Contact{})
	CustomQuestionModel      = NewModel("custom_question", CustomQuestion{},
		Synthetic{Field: "source_id", Basis: []string{"object_id", "column_name"}},
		Synthetic{Field: "id", Basis: []string{"object_type", "source_id"}},
	)
	TicketTypeModel               = NewModel("ticket_type", TicketType{})
	TicketOrderModel              = NewModel("ticket_order", TicketOrder{})
	TicketSaleModel               = NewModel("ticket_sale", TicketSale{})
	TicketTypeDiscountModel       = NewModel("ticket_type_discount", TicketTypeDiscount{}, Synthetic{Field: "id", Basis: []string{"ticket_type_id", "ticket_order_discount_id"}})
	TicketOrderDiscountModel      = NewModel("ticket_order_discount", TicketOrderDiscount{})
	TicketTypeCustomQuestionModel = NewModel("ticket_type_custom_question", TicketTypeCustomQuestion{}, Synthetic{Field: "id", Basis: []string{"ticket_type_id", "column_name"}})
	GroupContactModel             = NewModel("group_contact", GroupContact{})
	GroupContactEventRSVPModel    = NewModel("group_contact_event_rsvp", GroupContactEventRSVP{})
	GroupContactAnswerModel       = NewModel("group_contact_answer", GroupContactAnswer{}, Synthetic{Field: "id", Basis: []string{"group_contact_id", "question_id"}}).
					WithDedupOn("group_contact_id", "question_id")
	GroupContactEmailCampaignStatusModel = NewModel("group_contact_email_campaign_status", GroupContactEmailCampaignStatus{}, Synthetic{Field: "id", Basis: []string{"group_contact_id", "email_campaign_id"}})
)

// Models lists every target table, used for migrations.
func Models() []*Model {
	return []*Model{
		EventModel, EventTypeModel, EventStatsModel, EventSettingModel, EventTriggeredEmailModel,
		EventCustomQuestionModel, EventTicketTypeModel, SplashThemeModel, ContactModel,
		CustomQuestionModel, TicketTypeModel, TicketOrderModel, TicketSaleModel,
		TicketTypeDiscountModel, TicketOrderDiscountModel, TicketTypeCustomQuestionModel,
		GroupContactModel, GroupContactEventRSVPModel, GroupContactAnswerModel,
		GroupContactEmailCampaignStatusModel,
	}
}

// Question payloads carry the Splash question id in "id"; the row id is synthetic.
var questionID = Adopt("id", "custom_question_id")

var customQuestion = Transformer{
	Model: CustomQuestionModel,
	Steps: []Step{questionID, ObjectRef(), StringifyList("values", "selected_values")},
}

var ticketOrderDiscounts = []Transformer{
	{Model: TicketTypeDiscountModel, Steps: []Step{Rename("id", "ticket_order_discount_id")}},
	{Model: TicketOrderDiscountModel, Steps: []Step{Rename("flat_discount_amount", "flat_discount")}},
}

// Registry maps each source's collections to the transformers that consume them, in order.
// Collections without an entry are not loaded.
type Registry map[extract.Source]map[string][]Transformer

func DefaultRegistry() Registry {
	return Registry{
		extract.SourceEvent: {
			extract.TableEvents: {{
				Model: EventModel,
				Steps: []Step{StringifyList("event_attendance_types", "group_ids")},
			}},
			extract.TableSplashThemes: {{Model: SplashThemeModel}},
			extract.TableEventTypes:   {{Model: EventTypeModel}},
			extract.TableEventStats:   {{Model: EventStatsModel}},
			extract.TableEventSettings: {{
				Model: EventSettingModel,
				Steps: []Step{NullIfEmpty("lat", "lng")},
			}},
			extract.TableTriggeredEmails: {{Model: EventTriggeredEmailModel}},
			extract.TableCustomQuestions: {
				{Model: EventCustomQuestionModel, Steps: []Step{questionID}},
				customQuestion,
			},
			extract.TableTicketTypes: {
				{Model: EventTicketTypeModel, Steps: []Step{Rename("id", "ticket_type_id")}},
				{Model: TicketTypeModel},
			},
			extract.TableTicketTypeQuestions: {
				{Model: TicketTypeCustomQuestionModel, Steps: []Step{questionID}},
				customQuestion,
			},
			extract.TableTicketOrderDiscounts: ticketOrderDiscounts,
		},
		extract.SourceGroupContact: {
			extract.TableGroupContacts: {{Model: GroupContactModel}},
			extract.TableContacts: {{
				Model: ContactModel,
				Steps: []Step{
					SplitTyped("salesforce_id", "salesforce_object_type", UnspecifiedType),
					NullIfEmpty("organization_name", "phone"),
				},
			}},
			extract.TableRSVPs: {{
				Model: GroupContactEventRSVPModel,
				Steps: []Step{SetDefault("name", FullName)},
			}},
			extract.TableEmailCampaignStatuses: {{Model: GroupContactEmailCampaignStatusModel}},
			extract.TableAnswers:               {{Model: GroupContactAnswerModel}},
			extract.TableTicketSales: {{
				Model: TicketSaleModel,
				Steps: []Step{
					Sum("unit_price", "price", "foreign_price"),
					Sum("total_price", "total", "foreign_total"),
					NonZero("is_refunded", "ticket_order", "amount_refunded"),
				},
			}},
			extract.TableTicketOrders: {{
				Model: TicketOrderModel,
				Steps: []Step{
					CopyNested("contact_id", "contact", "id"),
					CopyNested("currency_id", "currency", "id"),
					CopyNested("currency_code", "currency", "code"),
					CopyNested("currency_name", "currency", "name"),
					CopyNested("flat_discount", "ticket_order_discount", "flat_discount_amount"),
					CopyNested("percent_discount", "ticket_order_discount", "percent_discount"),
					CopyNested("discount_code", "ticket_order_discount", "discount_code"),
					Rename("foreign_total_price", "foreign_total"),
				},
			}},
			extract.TableTicketOrderDiscounts: ticketOrderDiscounts,
			extract.TableTicketTypes:          {{Model: TicketTypeModel}},
			extract.TableTicketTypeQuestions: {
				{Model: TicketTypeCustomQuestionModel, Steps: []Step{questionID}},
				customQuestion,
			},
		},
	}
}

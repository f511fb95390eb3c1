package extract

import (
	"github.com/spyai-labs/etl-gcp-splash/internal/config"
	"github.com/spyai-labs/etl-gcp-splash/internal/splash"
	"github.com/spyai-labs/etl-gcp-splash/internal/syncwindow"
)

const (
	TableGroupContacts         = "group_contacts"
	TableEmailCampaignStatuses = "email_campaign_statuses"
	TableContacts              = "contacts"
	TableRSVPs                 = "rsvps"
	TableAnswers               = "answers"
	TableTicketSales           = "ticket_sales"
	TableTicketOrders          = "ticket_orders"
)

var groupContactStatuses = []string{"rsvp_yes", "rsvp_no", "checkin_yes", "checkin_no"}

var groupContactFamily = family{
	source:     SourceGroupContact,
	endpoint:   "groupcontacts",
	dateFields: []string{"modified", "created"},
	tables: []string{
		TableGroupContacts, TableEmailCampaignStatuses, TableContacts, TableRSVPs, TableAnswers,
		TableTicketSales, TableTicketOrders, TableTicketTypes, TableTicketOrderDiscounts,
		TableTicketTypeQuestions,
	},
	tuning: func(mode syncwindow.Mode) config.FetchTuning {
		t := config.FetchTuning{
			Limit:      250,
			PageStop:   splash.NoPageStop,
			Sort:       "modified DESC",
			ViewGroups: []string{"groupContactEmailCampaignStatuses", "bounceInfo"},
		}
		if mode == syncwindow.ModeIncremental {
			t.PageStop = 8
		}
		return t
	},
	params: func() map[string]string {
		return indexed("status", groupContactStatuses)
	},
	flattenOne: flattenGroupContact,
}

func flattenGroupContact(raw splash.Record, groupContactID int64, out Collections) {
	eventID := splash.Nested(raw, "event_rsvp", "event_id")

	for _, c := range objects(raw["email_campaign_statuses"]) {
		c = splash.Copy(c)
		c["event_id"] = eventID
		c["group_contact_id"] = groupContactID
		out.add(TableEmailCampaignStatuses, c)
	}

	contact, _ := splash.Map(raw["contact"])
	if contact != nil {
		c := splash.Copy(contact)
		bounce, _ := c["bounce_info"].(map[string]any)
		c["bounced_event"] = bounce["event_title"]
		c["bounced_on"] = bounce["sent_on"]
		c["bounced_reason"] = bounce["bounce_reason"]
		out.add(TableContacts, c)
	}

	rsvp, _ := splash.Map(raw["event_rsvp"])
	if rsvp != nil {
		flattenRSVP(rsvp, groupContactID, out)
	}

	for _, a := range objects(raw["answers"]) {
		a = splash.Copy(a)
		a["event_id"] = eventID
		a["group_contact_id"] = groupContactID
		out.add(TableAnswers, a)
	}

	gc := splash.Copy(raw)
	gc["contact_id"] = contact["id"]
	gc["event_id"] = rsvp["event_id"]
	gc["event_rsvp_id"] = rsvp["id"]
	gc["first_name"] = rsvp["first_name"]
	gc["last_name"] = rsvp["last_name"]
	gc["email"] = rsvp["email"]
	out.add(TableGroupContacts, gc)
}

func flattenRSVP(raw splash.Record, groupContactID int64, out Collections) {
	rsvp := splash.Copy(raw)
	rsvp["group_contact_id"] = groupContactID
	setDefault(rsvp, "ticket_sale_id", nil)

	if sale, ok := splash.Map(rsvp["ticket_sale"]); ok {
		rsvp["ticket_sale_id"] = sale["id"]
		flattenTicketSale(sale, out)
	}
	out.add(TableRSVPs, rsvp)
}

func flattenTicketSale(raw splash.Record, out Collections) {
	sale := splash.Copy(raw)
	setDefault(sale, "ticket_type_id", nil)
	setDefault(sale, "ticket_order_id", nil)

	ticketType, _ := splash.Map(sale["ticket_type"])
	ticketTypeID := ticketType["id"]
	if ticketType != nil {
		sale["ticket_type_id"] = ticketTypeID
		out.add(TableTicketTypes, splash.Copy(ticketType))

		for _, q := range objects(ticketType["custom_questions"]) {
			q = splash.Copy(q)
			q["ticket_type_id"] = ticketTypeID
			out.add(TableTicketTypeQuestions, q)
		}
	}

	if order, ok := splash.Map(sale["ticket_order"]); ok {
		order = splash.Copy(order)
		sale["ticket_order_id"] = order["id"]
		order["ticket_type_id"] = ticketTypeID
		setDefault(order, "ticket_order_discount_id", nil)
		for _, k := range []string{"ticket_type_name", "quantity", "price", "foreign_price"} {
			order[k] = sale[k]
		}

		if discount, ok := splash.Map(order["ticket_order_discount"]); ok {
			discount = splash.Copy(discount)
			order["ticket_order_discount_id"] = discount["id"]
			discount["ticket_type_id"] = ticketTypeID
			out.add(TableTicketOrderDiscounts, discount)
		}
		out.add(TableTicketOrders, order)
	}

	out.add(TableTicketSales, sale)
}

func setDefault(r splash.Record, key string, v any) {
	if _, ok := r[key]; !ok {
		r[key] = v
	}
}

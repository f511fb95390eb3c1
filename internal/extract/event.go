package extract

import (
	"github.com/spyai-labs/etl-gcp-splash/internal/config"
	"github.com/spyai-labs/etl-gcp-splash/internal/splash"
	"github.com/spyai-labs/etl-gcp-splash/internal/syncwindow"
)

const (
	TableEvents               = "events"
	TableEventSettings        = "event_settings"
	TableTriggeredEmails      = "triggered_emails"
	TableCustomQuestions      = "custom_questions"
	TableEventTypes           = "event_types"
	TableEventStats           = "event_stats"
	TableSplashThemes         = "splash_themes"
	TableTicketTypes          = "ticket_types"
	TableTicketOrderDiscounts = "ticket_order_discounts"
	TableTicketTypeQuestions  = "ticket_type_questions"
)

var eventFamily = family{
	source:     SourceEvent,
	endpoint:   "events",
	dateFields: []string{"modified_at", "created_at"},
	tables: []string{
		TableEvents, TableEventSettings, TableTriggeredEmails, TableCustomQuestions,
		TableEventTypes, TableEventStats, TableSplashThemes, TableTicketTypes,
		TableTicketOrderDiscounts, TableTicketTypeQuestions,
	},
	tuning: func(mode syncwindow.Mode) config.FetchTuning {
		t := config.FetchTuning{
			Limit:      30,
			PageStop:   splash.NoPageStop,
			Sort:       "modified_desc",
			ViewGroups: []string{"salesforceIntegration"},
		}
		if mode == syncwindow.ModeHistoricalFull {
			t.Limit = 250
		}
		if mode == syncwindow.ModeIncremental {
			t.PageStop = 2
		}
		return t
	},
	flattenOne: flattenEvent,
}

func flattenEvent(raw splash.Record, eventID int64, out Collections) {
	setting, _ := splash.Map(raw["event_setting"])
	if setting != nil {
		settingID := setting["id"]
		out.add(TableEventSettings, splash.Copy(setting))

		for _, q := range objects(setting["custom_questions"]) {
			q = splash.Copy(q)
			q["event_id"] = eventID
			q["event_setting_id"] = settingID
			out.add(TableCustomQuestions, q)
		}
		for _, e := range objects(splash.Nested(setting, "email_settings", "triggered_emails")) {
			e = splash.Copy(e)
			e["event_id"] = eventID
			e["event_setting_id"] = settingID
			out.add(TableTriggeredEmails, e)
		}
	}

	eventType, _ := splash.Map(raw["event_type"])
	if eventType != nil {
		out.add(TableEventTypes, splash.Copy(eventType))
	}

	for _, s := range objects(raw["stats"]) {
		s = splash.Copy(s)
		s["event_id"] = eventID
		out.add(TableEventStats, s)
	}

	theme, _ := splash.Map(raw["splash_theme"])
	if theme != nil {
		out.add(TableSplashThemes, splash.Copy(theme))
	}

	for _, tt := range objects(raw["ticket_types"]) {
		tt = splash.Copy(tt)
		tt["event_id"] = eventID
		out.add(TableTicketTypes, tt)
		ticketTypeID := tt["id"]

		for _, d := range objects(tt["ticket_order_discounts"]) {
			d = splash.Copy(d)
			d["ticket_type_id"] = ticketTypeID
			out.add(TableTicketOrderDiscounts, d)
		}
		for _, q := range objects(tt["custom_questions"]) {
			q = splash.Copy(q)
			q["ticket_type_id"] = ticketTypeID
			out.add(TableTicketTypeQuestions, q)
		}
	}

	event := splash.Copy(raw)
	event["splash_theme_id"] = theme["id"]
	event["splash_theme_name"] = theme["name"]
	event["event_type_id"] = eventType["id"]
	event["event_type_name"] = eventType["name"]
	event["event_setting_id"] = setting["id"]
	out.add(TableEvents, event)
}

package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spyai-labs/etl-gcp-splash/internal/extract"
	"github.com/spyai-labs/etl-gcp-splash/internal/splash"
	"github.com/spyai-labs/etl-gcp-splash/internal/syncwindow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var syncTime = time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)

func records(t *testing.T, raw string) []splash.Record {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var out []splash.Record
	require.NoError(t, dec.Decode(&out))
	return out
}

func newTestService(t *testing.T) (*Service, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return New(Params{Log: zap.New(core)}), logs
}

func tableByName(t *testing.T, tables []Table, name string) Table {
	t.Helper()
	for _, tb := range tables {
		if tb.Name == name {
			return tb
		}
	}
	t.Fatalf("table %s not produced", name)
	return Table{}
}

const ticketTypeJSON = `{
	"id": 100, "name": "GA", "description": "General", "price": 40, "quantity": 100,
	"quantity_sold": 3, "sold_out": false, "active": true, "order_min": 1, "order_max": 10,
	"fee_paid_by_buyer": false, "sort": 1, "collect_rsvp_fields": 0, "non_dollar": 0,
	"expires_length": 0, "nested_ticket": false, "show_remaining": true, "open_price": false,
	"open_price_min": 0, "open_price_max": 0, "add_guest_name": false
}`

func TestDecodeRequiredAndTypes(t *testing.T) {
	dec := newDecoder(time.UTC)

	row, err := dec.decode(TicketOrderDiscountModel, records(t, `[{
		"id": 7, "flat_discount": "5", "percent_discount": 12.5, "code": "EARLY", "unknown": true
	}]`)[0])
	require.NoError(t, err)
	want := Row{"id": int64(7), "flat_discount": int64(5), "percent_discount": 12.5, "name": nil, "code": "EARLY"}
	if diff := cmp.Diff(want, row); diff != "" {
		t.Fatalf("row mismatch (-want +got):\n%s", diff)
	}

	_, err = dec.decode(TicketOrderDiscountModel, splash.Record{"id": json.Number("7"), "percent_discount": json.Number("1")})
	require.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "code, flat_discount")

	_, err = dec.decode(TicketOrderDiscountModel, splash.Record{
		"id": json.Number("7"), "flat_discount": map[string]any{"a": 1}, "percent_discount": json.Number("1"), "code": "X",
	})
	assert.ErrorIs(t, err, ErrInvalidShape)
}

func TestDecodeTimesInSourceZone(t *testing.T) {
	loc := time.FixedZone("AEST", 10*3600)
	dec := newDecoder(loc)

	row, err := dec.decode(GroupContactAnswerModel, splash.Record{
		"group_contact_id": json.Number("1"), "question_id": json.Number("2"), "answer": "yes", "id": "abc",
	})
	require.NoError(t, err)
	assert.Nil(t, row["event_id"])

	r := splash.Record{
		"id": json.Number("1"), "contact_id": json.Number("2"), "status": "rsvp_yes",
		"created": "2025-05-02 08:00:00", "modified": "2025-05-03T08:00:00Z", "deleted": false,
	}
	row, err = dec.decode(GroupContactModel, r)
	require.NoError(t, err)
	assert.True(t, row["created"].(time.Time).Equal(time.Date(2025, 5, 2, 8, 0, 0, 0, loc)))
	assert.True(t, row["modified"].(time.Time).Equal(time.Date(2025, 5, 3, 8, 0, 0, 0, time.UTC)))
}

func TestTransformEventTicketing(t *testing.T) {
	svc, _ := newTestService(t)
	collections := extract.Collections{
		extract.TableTicketTypes: records(t, `[`+ticketTypeJSON+`]`),
		extract.TableTicketOrderDiscounts: records(t, `[{
			"id": 200, "flat_discount_amount": 5, "percent_discount": 0, "code": "EARLY", "ticket_type_id": 100
		}]`),
		extract.TableTicketTypeQuestions: records(t, `[{
			"id": 300, "type": "text", "name": "Agree?", "column_name": "agree", "required": true,
			"values": ["yes", "no"], "ticket_type_id": 100
		}]`),
	}
	collections[extract.TableTicketTypes][0]["event_id"] = int64(1)

	tables, err := svc.Transform(context.Background(), extract.SourceEvent, collections, syncTime)
	require.NoError(t, err)

	names := make([]string, 0, len(tables))
	for _, tb := range tables {
		names = append(names, tb.Name)
	}
	assert.Equal(t, []string{
		"event_ticket_type", "ticket_type", "ticket_type_discount", "ticket_order_discount",
		"ticket_type_custom_question", "custom_question",
	}, names)

	link := tableByName(t, tables, "event_ticket_type").Rows
	require.Len(t, link, 1)
	assert.Equal(t, int64(1), link[0]["event_id"])
	assert.Equal(t, int64(100), link[0]["ticket_type_id"])
	wantLinkID, err := SyntheticKey("event_ticket_type", Row{"event_id": 1, "ticket_type_id": 100}, []string{"event_id", "ticket_type_id"})
	require.NoError(t, err)
	assert.Equal(t, wantLinkID, link[0]["id"])

	tt := tableByName(t, tables, "ticket_type").Rows
	require.Len(t, tt, 1)
	assert.Equal(t, int64(100), tt[0]["id"])
	assert.Equal(t, syncTime, tt[0][ColumnSyncTime])
	assert.Equal(t, false, tt[0][ColumnDeleted])

	discount := tableByName(t, tables, "ticket_type_discount").Rows
	require.Len(t, discount, 1)
	assert.Equal(t, int64(200), discount[0]["ticket_order_discount_id"])
	assert.Equal(t, int64(100), discount[0]["ticket_type_id"])

	order := tableByName(t, tables, "ticket_order_discount").Rows
	require.Len(t, order, 1)
	assert.Equal(t, int64(5), order[0]["flat_discount"])

	q := tableByName(t, tables, "ticket_type_custom_question").Rows
	require.Len(t, q, 1)
	assert.Equal(t, int64(300), q[0]["custom_question_id"])

	cq := tableByName(t, tables, "custom_question").Rows
	require.Len(t, cq, 1)
	assert.Equal(t, "ticket_type", cq[0]["object_type"])
	assert.Equal(t, int64(100), cq[0]["object_id"])
	assert.Equal(t, "yes, no", cq[0]["values"])
	assert.Nil(t, cq[0]["selected_values"])
}

func TestTransformLastSightingWins(t *testing.T) {
	svc, _ := newTestService(t)
	first := records(t, `[`+ticketTypeJSON+`]`)[0]
	second := splash.Copy(first)
	second["name"] = "GA (renamed)"

	tables, err := svc.Transform(context.Background(), extract.SourceGroupContact, extract.Collections{
		extract.TableTicketTypes: {first, first, second},
	}, syncTime)
	require.NoError(t, err)
	rows := tableByName(t, tables, "ticket_type").Rows
	require.Len(t, rows, 1)
	assert.Equal(t, "GA (renamed)", rows[0]["name"])
}

func TestTransformAnswersDedupOnPair(t *testing.T) {
	svc, _ := newTestService(t)
	tables, err := svc.Transform(context.Background(), extract.SourceGroupContact, extract.Collections{
		extract.TableAnswers: records(t, `[
			{"group_contact_id": 1, "question_id": 9, "answer": "old"},
			{"group_contact_id": 1, "question_id": 10, "answer": "other"},
			{"group_contact_id": 1, "question_id": 9, "answer": "new"}
		]`),
	}, syncTime)
	require.NoError(t, err)

	rows := tableByName(t, tables, "group_contact_answer").Rows
	require.Len(t, rows, 2)
	assert.Equal(t, "other", rows[0]["answer"])
	assert.Equal(t, "new", rows[1]["answer"])
}

func TestTransformCustomQuestionsAcrossCollections(t *testing.T) {
	svc, _ := newTestService(t)
	tables, err := svc.Transform(context.Background(), extract.SourceEvent, extract.Collections{
		extract.TableCustomQuestions: records(t, `[{
			"id": 11, "type": "text", "name": "Diet", "column_name": "diet", "required": false,
			"event_id": 1, "event_setting_id": 10
		}]`),
		extract.TableTicketTypeQuestions: records(t, `[{
			"id": 12, "type": "text", "name": "Diet", "column_name": "diet", "required": false,
			"ticket_type_id": 100
		}]`),
	}, syncTime)
	require.NoError(t, err)

	rows := tableByName(t, tables, "custom_question").Rows
	require.Len(t, rows, 2)
	assert.Equal(t, "event", rows[0]["object_type"])
	assert.Equal(t, "ticket_type", rows[1]["object_type"])
	assert.NotEqual(t, rows[0]["id"], rows[1]["id"])

	event := tableByName(t, tables, "event_custom_question").Rows
	require.Len(t, event, 1)
	assert.Equal(t, int64(11), event[0]["custom_question_id"])
}

func TestTransformRejectsInvalidRecords(t *testing.T) {
	svc, logs := newTestService(t)
	tables, err := svc.Transform(context.Background(), extract.SourceEvent, extract.Collections{
		extract.TableEvents: records(t, `[{"id": 1, "title": "Launch"}]`),
		extract.TableEventStats: records(t, `[{"event_id": null, "name": " "}]`),
	}, syncTime)
	require.NoError(t, err)
	assert.Empty(t, tables)

	invalid := logs.FilterMessage("transform.record.invalid").All()
	require.Len(t, invalid, 2)
	var errs []error
	for _, entry := range invalid {
		for _, f := range entry.Context {
			if f.Key == "error" {
				errs = append(errs, f.Interface.(error))
			}
		}
	}
	require.Len(t, errs, 2)
	assert.True(t, errors.Is(errs[0], ErrMissingField))
	assert.True(t, errors.Is(errs[1], ErrEmptyKeyBasis))
}

func TestTransformContactSalesforceSplit(t *testing.T) {
	svc, _ := newTestService(t)
	tables, err := svc.Transform(context.Background(), extract.SourceGroupContact, extract.Collections{
		extract.TableContacts: records(t, `[{
			"id": 5, "salesforce_id": "Lead:00Q1", "first_name": "Ada", "last_name": "L",
			"primary_email": "ada@example.com", "organization_name": "", "createdate": "2025-05-01T00:00:00Z",
			"modifydate": "2025-05-02T00:00:00Z", "unsubscribed": false, "deleted": false, "vip": false,
			"bounced": false, "invalid_email": false
		}]`),
	}, syncTime)
	require.NoError(t, err)
	rows := tableByName(t, tables, "contact").Rows
	require.Len(t, rows, 1)
	assert.Equal(t, "00Q1", rows[0]["salesforce_id"])
	assert.Equal(t, "Lead", rows[0]["salesforce_object_type"])
	assert.Nil(t, rows[0]["organization_name"])
}

func TestTransformUnknownSource(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Transform(context.Background(), extract.Source("nope"), nil, syncTime)
	assert.ErrorIs(t, err, extract.ErrInvalidSource)
}

const rawEventJSON = `{
	"id": 1, "salesforce_campaign_id": null, "title": "Launch", "description_text": "Product launch",
	"event_owner_first_name": "Ada", "event_owner_last_name": "Lovelace", "event_owner_email": "ada@example.com",
	"hide_event_time": false, "venue_name": "Hall A", "address": "1 Main St", "city": "Sydney",
	"state": "NSW", "zip_code": "2000", "country": "AU",
	"created_at": "2025-05-01T09:00:00Z", "modified_at": "2025-05-10T12:00:00Z",
	"domain": "launch", "custom_domain": "", "paid_for_domain": false, "deleted": false, "published": true,
	"hub": 0, "fq_url": "https://launch.example.com", "mobile_check_in_url": "https://launch.example.com/checkin",
	"event_attendance_types": ["in_person", "virtual"], "group_ids": [],
	"registration_updating_enabled": false, "registration_updating_deadline": 0,
	"event_setting": {
		"id": 10, "rsvp_open": true, "wait_list": false, "rsvp_method": "form", "rsvp_max": 0,
		"venue_tbd": 0, "rsvp_guest_display": false, "rsvp_closed_state": "closed", "lat": "",
		"rsvp_closed_team_notified": false, "page_privacy_type": "public", "event_host": "Ada",
		"button_closed_message": "Closed", "autosave": true
	},
	"event_type": {"id": 3, "name": "Conference", "code_name": "conf", "splash_type": false, "public_type": true, "is_enterprise_type": false},
	"splash_theme": {"id": 7, "name": "Modern", "sort": 1, "active": true, "created": "2024-01-01T00:00:00Z"},
	"ticket_types": [{
		"id": 100, "name": "GA", "description": "General", "price": 40, "quantity": 100,
		"quantity_sold": 3, "sold_out": false, "active": true, "order_min": 1, "order_max": 10,
		"fee_paid_by_buyer": false, "sort": 1, "collect_rsvp_fields": 0, "non_dollar": 0,
		"expires_length": 0, "nested_ticket": false, "show_remaining": true, "open_price": false,
		"open_price_min": 0, "open_price_max": 0, "add_guest_name": false,
		"ticket_order_discounts": [{"id": 200, "name": "Early bird", "code": "EARLY", "flat_discount_amount": 5, "percent_discount": 0}]
	}]
}`

func TestTransformFlattenedEvent(t *testing.T) {
	svc, logs := newTestService(t)
	window := syncwindow.Window{
		Start: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 5, 31, 23, 59, 59, 0, time.UTC),
	}
	raw := records(t, `[`+rawEventJSON+`, `+rawEventJSON+`]`)

	collections, rejections, err := extract.Flatten(extract.SourceEvent, raw, window)
	require.NoError(t, err)
	require.Empty(t, rejections)

	tables, err := svc.Transform(context.Background(), extract.SourceEvent, collections, syncTime)
	require.NoError(t, err)
	assert.Empty(t, logs.FilterMessage("transform.record.invalid").All())

	linkID, err := SyntheticKey("event_ticket_type", Row{"event_id": 1, "ticket_type_id": 100}, []string{"event_id", "ticket_type_id"})
	require.NoError(t, err)
	discountID, err := SyntheticKey("ticket_type_discount", Row{"ticket_type_id": 100, "ticket_order_discount_id": 200}, []string{"ticket_type_id", "ticket_order_discount_id"})
	require.NoError(t, err)

	stamp := func(r Row) Row {
		r[ColumnSyncTime] = syncTime
		r[ColumnDeleted] = false
		return r
	}
	want := map[string][]Row{
		"event": {stamp(Row{
			"id": int64(1), "salesforce_campaign_id": nil,
			"splash_theme_id": int64(7), "splash_theme_name": "Modern",
			"event_type_id": int64(3), "event_type_name": "Conference", "event_setting_id": int64(10),
			"title": "Launch", "description_text": "Product launch",
			"event_owner_first_name": "Ada", "event_owner_last_name": "Lovelace", "event_owner_email": "ada@example.com",
			"event_start": nil, "event_end": nil, "hide_event_time": false,
			"venue_name": "Hall A", "address": "1 Main St", "city": "Sydney", "state": "NSW", "zip_code": "2000", "country": "AU",
			"created_at":  time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
			"modified_at": time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC),
			"domain": "launch", "custom_domain": "", "paid_for_domain": false, "deleted": false, "published": true,
			"hub": int64(0), "fq_url": "https://launch.example.com", "mobile_check_in_url": "https://launch.example.com/checkin",
			"event_attendance_types": "in_person, virtual", "group_ids": nil,
			"registration_updating_enabled": false, "registration_updating_deadline": int64(0),
		})},
		"event_setting": {stamp(Row{
			"id": int64(10), "header_image": nil, "rsvp_open": true, "wait_list": false, "rsvp_method": "form",
			"lat": nil, "lng": nil, "event_hashtag": nil, "rsvp_max": int64(0), "venue_tbd": int64(0),
			"rsvp_guest_display": false, "rsvp_closed_state": "closed", "rsvp_closed_at": nil,
			"rsvp_closed_team_notified": false, "page_privacy_type": "public", "event_host": "Ada",
			"button_closed_message": "Closed", "autosave": true,
		})},
		"event_type": {stamp(Row{
			"id": int64(3), "name": "Conference", "code_name": "conf",
			"splash_type": false, "public_type": true, "is_enterprise_type": false,
		})},
		"splash_theme": {stamp(Row{
			"id": int64(7), "name": "Modern", "abbr": nil, "image_url": nil, "thumbnail_url": nil,
			"sort": int64(1), "active": true, "created": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		})},
		"event_ticket_type": {stamp(Row{
			"event_id": int64(1), "ticket_type_id": int64(100), "name": "GA", "description": "General",
			"active": true, "id": linkID,
		})},
		"ticket_type": {stamp(Row{
			"id": int64(100), "name": "GA", "description": "General", "price": int64(40), "quantity": int64(100),
			"quantity_sold": int64(3), "sold_out": false, "active": true, "order_min": int64(1), "order_max": int64(10),
			"fee_paid_by_buyer": false, "sort": int64(1), "collect_rsvp_fields": int64(0), "non_dollar": int64(0),
			"expires_length": int64(0), "nested_ticket": false, "show_remaining": true, "open_price": false,
			"open_price_min": int64(0), "open_price_max": int64(0), "add_guest_name": false,
		})},
		"ticket_type_discount": {stamp(Row{
			"ticket_type_id": int64(100), "ticket_order_discount_id": int64(200), "id": discountID,
		})},
		"ticket_order_discount": {stamp(Row{
			"id": int64(200), "flat_discount": int64(5), "percent_discount": float64(0), "name": "Early bird", "code": "EARLY",
		})},
	}

	got := make(map[string][]Row, len(tables))
	for _, tb := range tables {
		got[tb.Name] = tb.Rows
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tables mismatch (-want +got):\n%s", diff)
	}
}

func TestTransformMergedTablesDedupOnModelIdentity(t *testing.T) {
	answers := NewModel("group_contact_answer", GroupContactAnswer{}).WithDedupOn("group_contact_id", "question_id")
	svc := &Service{
		registry: Registry{extract.SourceGroupContact: {
			extract.TableRSVPs:   {{Model: answers}},
			extract.TableAnswers: {{Model: answers}},
		}},
		dec: newDecoder(time.UTC),
		log: zap.NewNop(),
	}
	tables, err := svc.Transform(context.Background(), extract.SourceGroupContact, extract.Collections{
		extract.TableRSVPs: records(t, `[
			{"id": "9a3e1f52-6a43-5c0e-9a57-0d6f7a1c2b01", "group_contact_id": 1, "question_id": 2, "answer": "old"}
		]`),
		extract.TableAnswers: records(t, `[
			{"id": "4c8b2d10-7e5f-5a21-8f3c-1b2a3c4d5e02", "group_contact_id": 1, "question_id": 2, "answer": "new"}
		]`),
	}, syncTime)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	require.Len(t, tables[0].Rows, 1)
	assert.Equal(t, "new", tables[0].Rows[0]["answer"])
	assert.Equal(t, "4c8b2d10-7e5f-5a21-8f3c-1b2a3c4d5e02", tables[0].Rows[0]["id"])
}

func TestDecodeValidatesKeysAndEmails(t *testing.T) {
	dec := newDecoder(time.UTC)

	_, err := dec.decode(GroupContactAnswerModel, splash.Record{
		"group_contact_id": json.Number("1"), "question_id": json.Number("2"), "answer": "yes", "id": "17",
	})
	assert.ErrorIs(t, err, ErrInvalidShape)

	_, err = dec.decode(TicketTypeDiscountModel, splash.Record{
		"ticket_type_id": json.Number("0"), "ticket_order_discount_id": json.Number("200"),
		"id": "4c8b2d10-7e5f-5a21-8f3c-1b2a3c4d5e02",
	})
	require.ErrorIs(t, err, ErrInvalidShape)
	assert.Contains(t, err.Error(), "TicketTypeID")

	contact := records(t, `[{
		"id": 5, "first_name": "Ada", "last_name": "L", "primary_email": "not-an-address",
		"createdate": "2025-05-01T00:00:00Z", "modifydate": "2025-05-02T00:00:00Z",
		"unsubscribed": false, "deleted": false, "vip": false, "bounced": false, "invalid_email": true
	}]`)[0]
	_, err = dec.decode(ContactModel, contact)
	require.ErrorIs(t, err, ErrInvalidShape)
	assert.Contains(t, err.Error(), "PrimaryEmail")

	contact["primary_email"] = ""
	_, err = dec.decode(ContactModel, contact)
	assert.NoError(t, err)
}

package catalog

import (
	"github.com/kailas-cloud/scopeq/internal/domain/principal"
	"github.com/kailas-cloud/scopeq/internal/domain/resource"
	"github.com/kailas-cloud/scopeq/internal/domain/search/page"
	"github.com/kailas-cloud/scopeq/internal/domain/search/sort"
)

// Resource names.
const (
	Tasks         = "tasks"
	Reminders     = "reminders"
	Notifications = "notifications"
	Patients      = "patients"
	Courses       = "courses"
	Registrations = "registrations"
	OAuthClients  = "oauth_clients"
)

var platformAdmins = []principal.Role{principal.SuperAdmin}

// Builtin returns the definitions of the built-in resources.
func Builtin() []resource.Definition {
	return []resource.Definition{
		tasks(),
		reminders(),
		notifications(),
		patients(),
		courses(),
		registrations(),
		oauthClients(),
	}
}

func mustPolicy(def, max int, o page.Overflow) page.Policy {
	p, err := page.NewPolicy(def, max, o)
	if err != nil {
		panic(err)
	}
	return p
}

func tasks() resource.Definition {
	return resource.Definition{
		Name:       Tasks,
		Source:     "tasks",
		PrimaryKey: "id",
		Columns: []resource.Column{
			{Name: "id", Type: resource.UUID},
			{Name: "tenant_id", Type: resource.UUID},
			{Name: "title", Type: resource.String},
			{Name: "description", Type: resource.String},
			{Name: "status", Type: resource.String},
			{Name: "priority", Type: resource.Int},
			{Name: "assignee_id", Type: resource.UUID},
			{Name: "due_at", Type: resource.Time},
			{Name: "created_at", Type: resource.Time},
			{Name: "updated_at", Type: resource.Time},
		},
		Roles: []principal.Role{principal.SuperAdmin, principal.Admin, principal.User},
		Scopes: []resource.ScopeRule{
			{Kind: resource.Tenant, Column: "tenant_id", Param: "tenantId", ExemptRoles: platformAdmins},
		},
		Filters: []resource.FieldSpec{
			{Param: "tenantId", Column: "tenant_id", Kind: resource.Equals},
			{Param: "title", Column: "title", Kind: resource.Contains},
			{Param: "status", Column: "status", Kind: resource.Enum, Values: []string{"todo", "in_progress", "done"}},
			{Param: "assigneeId", Column: "assignee_id", Kind: resource.Equals, Nullable: true},
			{Param: "priority", Column: "priority", Kind: resource.In},
		},
		Ranges: []resource.RangeSpec{
			{FromParam: "dueAt_from", ToParam: "dueAt_to", Column: "due_at"},
			{FromParam: "createdAt_from", ToParam: "createdAt_to", Column: "created_at"},
			{FromParam: "min_priority", ToParam: "max_priority", Column: "priority"},
		},
		Keywords: []resource.KeywordSpec{{Param: "search", Columns: []string{"title", "description"}}},
		Sort: sort.MustAllowlist([]sort.Field{
			{Name: "createdAt", Column: "created_at"},
			{Name: "updatedAt", Column: "updated_at"},
			{Name: "dueAt", Column: "due_at"},
			{Name: "priority", Column: "priority"},
			{Name: "title", Column: "title"},
		}, "createdAt", sort.Desc),
		Page: page.DefaultPolicy(),
		Projection: []resource.ProjectedField{
			{Name: "id", Column: "id"},
			{Name: "title", Column: "title"},
			{Name: "description", Column: "description"},
			{Name: "status", Column: "status"},
			{Name: "priority", Column: "priority"},
			{Name: "assigneeId", Column: "assignee_id"},
			{Name: "dueAt", Column: "due_at"},
			{Name: "createdAt", Column: "created_at"},
			{Name: "updatedAt", Column: "updated_at"},
		},
	}
}

func reminders() resource.Definition {
	return resource.Definition{
		Name:       Reminders,
		Source:     "reminders",
		PrimaryKey: "id",
		Columns: []resource.Column{
			{Name: "id", Type: resource.UUID},
			{Name: "recipient_user_id", Type: resource.UUID},
			{Name: "title", Type: resource.String},
			{Name: "message", Type: resource.String},
			{Name: "channel", Type: resource.String},
			{Name: "remind_at", Type: resource.Time},
			{Name: "sent_at", Type: resource.Time},
			{Name: "created_at", Type: resource.Time},
		},
		Roles: []principal.Role{principal.Admin, principal.Staff, principal.Doctor, principal.User},
		Scopes: []resource.ScopeRule{
			{Kind: resource.Owner, Column: "recipient_user_id", Param: "recipientUserId"},
		},
		Filters: []resource.FieldSpec{
			{Param: "recipientUserId", Column: "recipient_user_id", Kind: resource.Equals},
			{Param: "channel", Column: "channel", Kind: resource.Enum, Values: []string{"email", "sms", "push"}},
			{Param: "sentAt", Column: "sent_at", Kind: resource.Equals, Nullable: true},
		},
		Ranges: []resource.RangeSpec{
			{FromParam: "remindAt_from", ToParam: "remindAt_to", Column: "remind_at"},
		},
		Keywords: []resource.KeywordSpec{{Param: "search", Columns: []string{"title", "message"}}},
		Sort: sort.MustAllowlist([]sort.Field{
			{Name: "remindAt", Column: "remind_at"},
			{Name: "createdAt", Column: "created_at"},
		}, "remindAt", sort.Asc),
		Page: mustPolicy(10, 50, page.Clamp),
		Projection: []resource.ProjectedField{
			{Name: "id", Column: "id"},
			{Name: "title", Column: "title"},
			{Name: "message", Column: "message"},
			{Name: "channel", Column: "channel"},
			{Name: "remindAt", Column: "remind_at"},
			{Name: "sentAt", Column: "sent_at"},
			{Name: "createdAt", Column: "created_at"},
		},
	}
}

func notifications() resource.Definition {
	return resource.Definition{
		Name:       Notifications,
		Source:     "notifications",
		PrimaryKey: "id",
		Columns: []resource.Column{
			{Name: "id", Type: resource.UUID},
			{Name: "tenant_id", Type: resource.UUID},
			{Name: "user_id", Type: resource.UUID},
			{Name: "kind", Type: resource.String},
			{Name: "title", Type: resource.String},
			{Name: "body", Type: resource.String},
			{Name: "read_at", Type: resource.Time},
			{Name: "created_at", Type: resource.Time},
		},
		Roles: []principal.Role{principal.Admin, principal.Staff, principal.Doctor, principal.User},
		Scopes: []resource.ScopeRule{
			{Kind: resource.Tenant, Column: "tenant_id"},
			{Kind: resource.Owner, Column: "user_id", Param: "userId"},
		},
		Filters: []resource.FieldSpec{
			{Param: "userId", Column: "user_id", Kind: resource.Equals},
			{Param: "kind", Column: "kind", Kind: resource.Enum, Values: []string{"info", "warning", "alert"}},
			{Param: "readAt", Column: "read_at", Kind: resource.Equals, Nullable: true},
		},
		Ranges: []resource.RangeSpec{
			{FromParam: "createdAt_from", ToParam: "createdAt_to", Column: "created_at"},
		},
		Keywords: []resource.KeywordSpec{{Param: "search", Columns: []string{"title", "body"}}},
		Sort: sort.MustAllowlist([]sort.Field{
			{Name: "createdAt", Column: "created_at"},
			{Name: "readAt", Column: "read_at"},
		}, "createdAt", sort.Desc),
		Page: page.DefaultPolicy(),
		Projection: []resource.ProjectedField{
			{Name: "id", Column: "id"},
			{Name: "kind", Column: "kind"},
			{Name: "title", Column: "title"},
			{Name: "body", Column: "body"},
			{Name: "readAt", Column: "read_at"},
			{Name: "createdAt", Column: "created_at"},
		},
	}
}

func patients() resource.Definition {
	return resource.Definition{
		Name:       Patients,
		Source:     "patients",
		PrimaryKey: "id",
		Columns: []resource.Column{
			{Name: "id", Type: resource.UUID},
			{Name: "organization_id", Type: resource.UUID},
			{Name: "first_name", Type: resource.String},
			{Name: "last_name", Type: resource.String},
			{Name: "email", Type: resource.String},
			{Name: "gender", Type: resource.String},
			{Name: "date_of_birth", Type: resource.Time},
			{Name: "age", Type: resource.Int},
			{Name: "national_id", Type: resource.String, Sensitive: true},
			{Name: "created_at", Type: resource.Time},
		},
		Roles: []principal.Role{principal.SuperAdmin, principal.Admin, principal.Doctor, principal.Staff},
		Scopes: []resource.ScopeRule{
			{Kind: resource.Organization, Column: "organization_id", Param: "organizationId", ExemptRoles: platformAdmins},
		},
		Filters: []resource.FieldSpec{
			{Param: "organizationId", Column: "organization_id", Kind: resource.Equals},
			{Param: "firstName", Column: "first_name", Kind: resource.Contains},
			{Param: "lastName", Column: "last_name", Kind: resource.Contains},
			{Param: "email", Column: "email", Kind: resource.Equals},
			{Param: "gender", Column: "gender", Kind: resource.Enum, Values: []string{"male", "female", "other"}},
		},
		Ranges: []resource.RangeSpec{
			{FromParam: "min_age", ToParam: "max_age", Column: "age"},
			{FromParam: "dateOfBirth_from", ToParam: "dateOfBirth_to", Column: "date_of_birth"},
		},
		Keywords: []resource.KeywordSpec{{Param: "search", Columns: []string{"first_name", "last_name", "email"}}},
		Sort: sort.MustAllowlist([]sort.Field{
			{Name: "lastName", Column: "last_name"},
			{Name: "firstName", Column: "first_name"},
			{Name: "age", Column: "age"},
			{Name: "createdAt", Column: "created_at"},
		}, "createdAt", sort.Desc),
		Page: mustPolicy(20, 100, page.Reject),
		Projection: []resource.ProjectedField{
			{Name: "id", Column: "id"},
			{Name: "firstName", Column: "first_name"},
			{Name: "lastName", Column: "last_name"},
			{Name: "email", Column: "email"},
			{Name: "gender", Column: "gender"},
			{Name: "dateOfBirth", Column: "date_of_birth"},
			{Name: "age", Column: "age"},
			{Name: "createdAt", Column: "created_at"},
		},
	}
}

func courses() resource.Definition {
	return resource.Definition{
		Name:       Courses,
		Source:     "courses",
		PrimaryKey: "id",
		Columns: []resource.Column{
			{Name: "id", Type: resource.UUID},
			{Name: "tenant_id", Type: resource.UUID},
			{Name: "title", Type: resource.String},
			{Name: "description", Type: resource.String},
			{Name: "category", Type: resource.String},
			{Name: "level", Type: resource.String},
			{Name: "price", Type: resource.Float},
			{Name: "published", Type: resource.Bool},
			{Name: "instructor_id", Type: resource.UUID},
			{Name: "created_at", Type: resource.Time},
		},
		Roles: []principal.Role{principal.SuperAdmin, principal.Admin, principal.Staff, principal.User},
		Scopes: []resource.ScopeRule{
			{Kind: resource.Tenant, Column: "tenant_id", Param: "tenantId", ExemptRoles: platformAdmins},
		},
		Filters: []resource.FieldSpec{
			{Param: "tenantId", Column: "tenant_id", Kind: resource.Equals},
			{Param: "title", Column: "title", Kind: resource.Contains},
			{Param: "category", Column: "category", Kind: resource.Equals},
			{Param: "level", Column: "level", Kind: resource.Enum, Values: []string{"beginner", "intermediate", "advanced"}},
			{Param: "published", Column: "published", Kind: resource.Equals},
			{Param: "instructorId", Column: "instructor_id", Kind: resource.Equals},
		},
		Ranges: []resource.RangeSpec{
			{FromParam: "min_price", ToParam: "max_price", Column: "price"},
		},
		Keywords: []resource.KeywordSpec{{Param: "search", Columns: []string{"title", "description"}}},
		Sort: sort.MustAllowlist([]sort.Field{
			{Name: "title", Column: "title"},
			{Name: "price", Column: "price"},
			{Name: "createdAt", Column: "created_at"},
		}, "createdAt", sort.Desc),
		Page: page.DefaultPolicy(),
		Projection: []resource.ProjectedField{
			{Name: "id", Column: "id"},
			{Name: "title", Column: "title"},
			{Name: "description", Column: "description"},
			{Name: "category", Column: "category"},
			{Name: "level", Column: "level"},
			{Name: "price", Column: "price"},
			{Name: "published", Column: "published"},
			{Name: "instructorId", Column: "instructor_id"},
			{Name: "createdAt", Column: "created_at"},
		},
	}
}

func registrations() resource.Definition {
	return resource.Definition{
		Name:       Registrations,
		Source:     "registrations",
		PrimaryKey: "id",
		Columns: []resource.Column{
			{Name: "id", Type: resource.UUID},
			{Name: "tenant_id", Type: resource.UUID},
			{Name: "event_id", Type: resource.UUID},
			{Name: "attendee_name", Type: resource.String},
			{Name: "attendee_email", Type: resource.String},
			{Name: "status", Type: resource.String},
			{Name: "ticket_count", Type: resource.Int},
			{Name: "amount_paid", Type: resource.Float},
			{Name: "registered_at", Type: resource.Time},
			{Name: "checked_in_at", Type: resource.Time},
		},
		Roles: []principal.Role{principal.SuperAdmin, principal.Admin, principal.Staff},
		Scopes: []resource.ScopeRule{
			{Kind: resource.Tenant, Column: "tenant_id", Param: "tenantId", ExemptRoles: platformAdmins},
		},
		Filters: []resource.FieldSpec{
			{Param: "tenantId", Column: "tenant_id", Kind: resource.Equals},
			{Param: "eventId", Column: "event_id", Kind: resource.Equals},
			{Param: "status", Column: "status", Kind: resource.Enum, Values: []string{"pending", "confirmed", "cancelled"}},
			{Param: "attendeeEmail", Column: "attendee_email", Kind: resource.Equals},
			{Param: "checkedInAt", Column: "checked_in_at", Kind: resource.Equals, Nullable: true},
		},
		Ranges: []resource.RangeSpec{
			{FromParam: "registeredAt_from", ToParam: "registeredAt_to", Column: "registered_at"},
			{FromParam: "min_tickets", ToParam: "max_tickets", Column: "ticket_count"},
		},
		Keywords: []resource.KeywordSpec{{Param: "search", Columns: []string{"attendee_name", "attendee_email"}}},
		Sort: sort.MustAllowlist([]sort.Field{
			{Name: "registeredAt", Column: "registered_at"},
			{Name: "attendeeName", Column: "attendee_name"},
			{Name: "ticketCount", Column: "ticket_count"},
		}, "registeredAt", sort.Desc),
		Page: mustPolicy(25, 200, page.Clamp),
		Projection: []resource.ProjectedField{
			{Name: "id", Column: "id"},
			{Name: "eventId", Column: "event_id"},
			{Name: "attendeeName", Column: "attendee_name"},
			{Name: "attendeeEmail", Column: "attendee_email"},
			{Name: "status", Column: "status"},
			{Name: "ticketCount", Column: "ticket_count"},
			{Name: "amountPaid", Column: "amount_paid"},
			{Name: "registeredAt", Column: "registered_at"},
			{Name: "checkedInAt", Column: "checked_in_at"},
		},
	}
}

func oauthClients() resource.Definition {
	return resource.Definition{
		Name:       OAuthClients,
		Source:     "oauth_clients",
		PrimaryKey: "id",
		Columns: []resource.Column{
			{Name: "id", Type: resource.UUID},
			{Name: "organization_id", Type: resource.UUID},
			{Name: "name", Type: resource.String},
			{Name: "client_id", Type: resource.String},
			{Name: "client_secret_hash", Type: resource.String, Sensitive: true},
			{Name: "redirect_uri", Type: resource.String},
			{Name: "grant_types", Type: resource.String},
			{Name: "active", Type: resource.Bool},
			{Name: "created_at", Type: resource.Time},
		},
		Roles: []principal.Role{principal.SuperAdmin, principal.Admin},
		Scopes: []resource.ScopeRule{
			{Kind: resource.Organization, Column: "organization_id", Param: "organizationId", ExemptRoles: platformAdmins},
		},
		Filters: []resource.FieldSpec{
			{Param: "organizationId", Column: "organization_id", Kind: resource.Equals},
			{Param: "name", Column: "name", Kind: resource.Contains},
			{Param: "clientId", Column: "client_id", Kind: resource.Equals},
			{Param: "active", Column: "active", Kind: resource.Equals},
		},
		Ranges: []resource.RangeSpec{
			{FromParam: "createdAt_from", ToParam: "createdAt_to", Column: "created_at"},
		},
		Keywords: []resource.KeywordSpec{{Param: "search", Columns: []string{"name", "client_id"}}},
		Sort: sort.MustAllowlist([]sort.Field{
			{Name: "name", Column: "name"},
			{Name: "createdAt", Column: "created_at"},
		}, "createdAt", sort.Desc),
		Page: mustPolicy(20, 50, page.Clamp),
		Projection: []resource.ProjectedField{
			{Name: "id", Column: "id"},
			{Name: "name", Column: "name"},
			{Name: "clientId", Column: "client_id"},
			{Name: "redirectUri", Column: "redirect_uri"},
			{Name: "grantTypes", Column: "grant_types"},
			{Name: "active", Column: "active"},
			{Name: "createdAt", Column: "created_at"},
		},
	}
}

// Package gql exposes the party planner over GraphQL. Resolvers return plain
// maps so that every field a client can see is listed here explicitly.
package gql

import (
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/shopspring/decimal"

	"github.com/mmynk/partyplanner/internal/auth"
	"github.com/mmynk/partyplanner/internal/models"
)

func enumName(value string) string {
	return strings.ToUpper(strings.ReplaceAll(value, "-", "_"))
}

var partyThemeEnum = func() *graphql.Enum {
	values := graphql.EnumValueConfigMap{}
	for _, t := range models.Themes {
		values[enumName(string(t))] = &graphql.EnumValueConfig{Value: string(t)}
	}
	return graphql.NewEnum(graphql.EnumConfig{Name: "PartyTheme", Values: values})
}()

var partyStatusEnum = graphql.NewEnum(graphql.EnumConfig{
	Name: "PartyStatus",
	Values: graphql.EnumValueConfigMap{
		"UPCOMING": &graphql.EnumValueConfig{Value: string(models.StatusUpcoming), Description: "Upcoming"},
		"ONGOING":  &graphql.EnumValueConfig{Value: string(models.StatusOngoing), Description: "Ongoing"},
		"PAST":     &graphql.EnumValueConfig{Value: string(models.StatusPast), Description: "Past"},
	},
})

var itemCategoryEnum = func() *graphql.Enum {
	values := graphql.EnumValueConfigMap{}
	for _, c := range models.Categories {
		values[enumName(string(c))] = &graphql.EnumValueConfig{Value: string(c), Description: c.Label()}
	}
	return graphql.NewEnum(graphql.EnumConfig{Name: "ItemCategory", Values: values})
}()

var partyType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Party",
	Fields: graphql.Fields{
		"id":                &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"name":              &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"theme":             &graphql.Field{Type: graphql.NewNonNull(partyThemeEnum)},
		"venue":             &graphql.Field{Type: graphql.String},
		"startDate":         &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"endDate":           &graphql.Field{Type: graphql.String},
		"totalCost":         &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"totalContribution": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"totalPurchase":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"description":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"status":            &graphql.Field{Type: graphql.NewNonNull(partyStatusEnum)},
	},
})

var userType = graphql.NewObject(graphql.ObjectConfig{
	Name: "User",
	Fields: graphql.Fields{
		"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"firstName": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"lastName":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"email":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"image":     &graphql.Field{Type: graphql.String},
		"mobileNo":  &graphql.Field{Type: graphql.String},
	},
})

var participantType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Participant",
	Fields: graphql.Fields{
		"user":         &graphql.Field{Type: userType},
		"contribution": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"balance":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"displayName":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
	},
})

var itemType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Item",
	Fields: graphql.Fields{
		"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"name":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"category":  &graphql.Field{Type: graphql.NewNonNull(itemCategoryEnum)},
		"quantity":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"price":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"purchased": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"forAll":    &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"consumers": &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(participantType)))},
		"totalCost": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
	},
})

var userNodeType = graphql.NewObject(graphql.ObjectConfig{
	Name: "UserNode",
	Fields: graphql.Fields{
		"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"username":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"email":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"firstName": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"lastName":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"verified":  &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
	},
})

var fieldErrorType = graphql.NewObject(graphql.ObjectConfig{
	Name: "FieldError",
	Fields: graphql.Fields{
		"field":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"message": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"code":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
	},
})

// payloadType builds a mutation payload with success and errors plus extra
// fields.
func payloadType(name string, extra graphql.Fields) *graphql.Object {
	fields := graphql.Fields{
		"success": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"errors":  &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(fieldErrorType)))},
	}
	for k, v := range extra {
		fields[k] = v
	}
	return graphql.NewObject(graphql.ObjectConfig{Name: name, Fields: fields})
}

func tokenFields() graphql.Fields {
	return graphql.Fields{
		"token":        &graphql.Field{Type: graphql.String},
		"refreshToken": &graphql.Field{Type: graphql.String},
	}
}

var (
	registerPayload      = payloadType("RegisterPayload", tokenFields())
	verifyAccountPayload = payloadType("VerifyAccountPayload", nil)
	tokenAuthPayload     = func() *graphql.Object {
		fields := tokenFields()
		fields["user"] = &graphql.Field{Type: userNodeType}
		return payloadType("ObtainJSONWebTokenPayload", fields)
	}()
	refreshTokenPayload = payloadType("RefreshTokenPayload", tokenFields())
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func partyMap(p *models.Party) map[string]interface{} {
	m := map[string]interface{}{
		"id":                p.ID,
		"name":              p.Name,
		"theme":             string(p.Theme),
		"venue":             nil,
		"startDate":         models.FormatDate(p.StartDate),
		"endDate":           nil,
		"totalCost":         money(p.TotalCost),
		"totalContribution": money(p.TotalContribution),
		"totalPurchase":     money(p.TotalPurchase),
		"description":       p.Description,
		"status":            string(p.Status),
	}
	if p.Venue != nil {
		m["venue"] = *p.Venue
	}
	if p.EndDate != nil {
		m["endDate"] = models.FormatDate(*p.EndDate)
	}
	return m
}

func userMap(u *models.User) map[string]interface{} {
	if u == nil {
		return nil
	}
	m := map[string]interface{}{
		"id":        u.ID,
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"email":     u.Email,
		"image":     nil,
		"mobileNo":  nil,
	}
	if u.Image != nil {
		m["image"] = *u.Image
	}
	if u.MobileNo != nil {
		m["mobileNo"] = *u.MobileNo
	}
	return m
}

func participantMap(p *models.Participant) map[string]interface{} {
	return map[string]interface{}{
		"user":         userMap(p.User),
		"contribution": money(p.Contribution),
		"balance":      money(p.Balance),
		"displayName":  p.DisplayName(),
	}
}

func itemMap(i *models.Item) map[string]interface{} {
	consumers := make([]interface{}, 0, len(i.Consumers))
	for _, c := range i.Consumers {
		consumers = append(consumers, participantMap(c))
	}
	return map[string]interface{}{
		"id":        i.ID,
		"name":      i.Name,
		"category":  string(i.Category),
		"quantity":  i.Quantity,
		"price":     money(i.Price),
		"purchased": i.Purchased,
		"forAll":    i.ForAll,
		"consumers": consumers,
		"totalCost": money(i.TotalCost()),
	}
}

func userNodeMap(u *models.User) map[string]interface{} {
	if u == nil {
		return nil
	}
	return map[string]interface{}{
		"id":        u.ID,
		"username":  u.Username,
		"email":     u.Email,
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"verified":  u.Verified,
	}
}

func fieldErrorsList(errs []auth.FieldError) []interface{} {
	out := make([]interface{}, 0, len(errs))
	for _, e := range errs {
		out = append(out, map[string]interface{}{
			"field":   e.Field,
			"message": e.Message,
			"code":    e.Code,
		})
	}
	return out
}

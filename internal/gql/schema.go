package gql

import (
	"errors"
	"net/http"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/handler"

	"github.com/mmynk/partyplanner/internal/models"
	"github.com/mmynk/partyplanner/internal/service"
	"github.com/mmynk/partyplanner/internal/storage"
)

// ErrPartyNotFound is the client-facing error for an unknown party id.
var ErrPartyNotFound = errors.New("Party matching query does not exist.")

type resolver struct {
	queries *service.QueryService
	auth    *service.AuthService
}

func idArg() graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
	}
}

func stringArgs(names ...string) graphql.FieldConfigArgument {
	args := graphql.FieldConfigArgument{}
	for _, name := range names {
		args[name] = &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)}
	}
	return args
}

func argString(p graphql.ResolveParams, name string) string {
	s, _ := p.Args[name].(string)
	return s
}

func parties(list []*models.Party) []interface{} {
	out := make([]interface{}, 0, len(list))
	for _, p := range list {
		out = append(out, partyMap(p))
	}
	return out
}

func items(list []*models.Item) []interface{} {
	out := make([]interface{}, 0, len(list))
	for _, i := range list {
		out = append(out, itemMap(i))
	}
	return out
}

// NewSchema builds the query and mutation schema over the services.
func NewSchema(queries *service.QueryService, authSvc *service.AuthService) (graphql.Schema, error) {
	r := &resolver{queries: queries, auth: authSvc}

	partyList := graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(partyType)))
	itemList := graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(itemType)))

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"allParties": &graphql.Field{
				Type:    partyList,
				Resolve: r.allParties,
			},
			"partyByName": &graphql.Field{
				Type:    partyList,
				Args:    stringArgs("name"),
				Resolve: r.partyByName,
			},
			"partyById": &graphql.Field{
				Type:    partyType,
				Args:    idArg(),
				Resolve: r.partyByID,
			},
			"allItems": &graphql.Field{
				Type:    itemList,
				Resolve: r.allItems,
			},
			"partyItems": &graphql.Field{
				Type:    itemList,
				Args:    idArg(),
				Resolve: r.partyItems,
			},
			"partyParticipants": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(participantType))),
				Args:    idArg(),
				Resolve: r.partyParticipants,
			},
			"users": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(userNodeType))),
				Resolve: r.users,
			},
			"me": &graphql.Field{
				Type:    userNodeType,
				Resolve: r.me,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"register": &graphql.Field{
				Type:    registerPayload,
				Args:    stringArgs("email", "username", "password1", "password2"),
				Resolve: r.register,
			},
			"verifyAccount": &graphql.Field{
				Type:    verifyAccountPayload,
				Args:    stringArgs("token"),
				Resolve: r.verifyAccount,
			},
			"tokenAuth": &graphql.Field{
				Type:    tokenAuthPayload,
				Args:    stringArgs("username", "password"),
				Resolve: r.tokenAuth,
			},
			"refreshToken": &graphql.Field{
				Type:    refreshTokenPayload,
				Args:    stringArgs("refreshToken"),
				Resolve: r.refreshToken,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}

// NewHandler serves the schema over HTTP. GraphiQL is offered to browsers
// when graphiql is set.
func NewHandler(schema graphql.Schema, graphiql bool) http.Handler {
	return handler.New(&handler.Config{
		Schema:   &schema,
		Pretty:   true,
		GraphiQL: graphiql,
	})
}

func (r *resolver) allParties(p graphql.ResolveParams) (interface{}, error) {
	list, err := r.queries.ListParties(p.Context)
	if err != nil {
		return nil, err
	}
	return parties(list), nil
}

func (r *resolver) partyByName(p graphql.ResolveParams) (interface{}, error) {
	list, err := r.queries.FindPartyByName(p.Context, argString(p, "name"))
	if err != nil {
		return nil, err
	}
	return parties(list), nil
}

func (r *resolver) partyByID(p graphql.ResolveParams) (interface{}, error) {
	party, err := r.queries.GetPartyByID(p.Context, argString(p, "id"))
	if storage.IsNotFound(err) {
		return nil, ErrPartyNotFound
	}
	if err != nil {
		return nil, err
	}
	return partyMap(party), nil
}

func (r *resolver) allItems(p graphql.ResolveParams) (interface{}, error) {
	list, err := r.queries.ListItems(p.Context)
	if err != nil {
		return nil, err
	}
	return items(list), nil
}

func (r *resolver) partyItems(p graphql.ResolveParams) (interface{}, error) {
	list, err := r.queries.ListItemsForParty(p.Context, argString(p, "id"))
	if err != nil {
		return nil, err
	}
	return items(list), nil
}

func (r *resolver) partyParticipants(p graphql.ResolveParams) (interface{}, error) {
	list, err := r.queries.ListParticipantsForParty(p.Context, argString(p, "id"))
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, 0, len(list))
	for _, participant := range list {
		out = append(out, participantMap(participant))
	}
	return out, nil
}

func (r *resolver) users(p graphql.ResolveParams) (interface{}, error) {
	list, err := r.auth.Users(p.Context)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, 0, len(list))
	for _, u := range list {
		out = append(out, userNodeMap(u))
	}
	return out, nil
}

func (r *resolver) me(p graphql.ResolveParams) (interface{}, error) {
	user, err := r.auth.Me(p.Context)
	if err != nil || user == nil {
		return nil, err
	}
	return userNodeMap(user), nil
}

// payload renders an AuthResult with the fields of the given mutation.
func payload(res *service.AuthResult, withTokens, withUser bool) map[string]interface{} {
	m := map[string]interface{}{
		"success": res.Success,
		"errors":  fieldErrorsList(res.Errors),
	}
	if withTokens {
		m["token"] = nilIfEmpty(res.Token)
		m["refreshToken"] = nilIfEmpty(res.RefreshToken)
	}
	if withUser {
		if res.User != nil {
			m["user"] = userNodeMap(res.User)
		} else {
			m["user"] = nil
		}
	}
	return m
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func (r *resolver) register(p graphql.ResolveParams) (interface{}, error) {
	res, err := r.auth.Register(p.Context,
		argString(p, "email"), argString(p, "username"),
		argString(p, "password1"), argString(p, "password2"))
	if err != nil {
		return nil, err
	}
	return payload(res, true, false), nil
}

func (r *resolver) verifyAccount(p graphql.ResolveParams) (interface{}, error) {
	res, err := r.auth.VerifyAccount(p.Context, argString(p, "token"))
	if err != nil {
		return nil, err
	}
	return payload(res, false, false), nil
}

func (r *resolver) tokenAuth(p graphql.ResolveParams) (interface{}, error) {
	res, err := r.auth.TokenAuth(p.Context, argString(p, "username"), argString(p, "password"))
	if err != nil {
		return nil, err
	}
	return payload(res, true, true), nil
}

func (r *resolver) refreshToken(p graphql.ResolveParams) (interface{}, error) {
	res, err := r.auth.RefreshToken(p.Context, argString(p, "refreshToken"))
	if err != nil {
		return nil, err
	}
	return payload(res, true, false), nil
}

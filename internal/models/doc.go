// Package models defines the core domain models for the party planner.
//
// # Entities
//
//   - User: a registered identity; referenced by participants, never owned
//   - Party: an event with a derived lifecycle status and derived totals
//   - Participant: a user's membership and contribution within one party
//   - Item: something to buy or bring for one party, optionally shared
//
// # Derived fields
//
// Party.Status, Party.EndDate (when omitted) and the Party totals are never
// taken from input. They are recomputed by the storage layer on every party
// write using the rules in package calculator.
//
// # Validation
//
// Each entity has a Validate method that checks field bounds and enum
// membership and returns a *ValidationError naming the offending field.
// Uniqueness and referential checks need the store and live there.
package models

// Package events carries domain events from use cases to interested
// components without coupling them.
//
// Services emit an Event after a unit of work commits; handlers such as the
// metrics recorder react to it. Events describe facts that already happened,
// so a failing handler never undoes the change that produced the event.
package events

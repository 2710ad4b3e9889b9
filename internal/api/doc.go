// Package api is the HTTP host of the scheduler. It routes requests, validates
// payloads, and translates between JSON and the study service. No scheduling
// decisions are made here.
package api

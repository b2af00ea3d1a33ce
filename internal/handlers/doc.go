// Package handlers exposes the notification pipeline over HTTP.
//
// POST /api/contact and POST /api/configurator accept the website form
// payloads as JSON, validate them against embedded JSON schemas, strip
// markup from free text and hand them to the dispatcher. ErrorHandler renders
// every failure in the same JSON envelope the forms expect.
package handlers

// Package health provides liveness and readiness HTTP handlers.
//
// Readiness runs a set of named [Checks] concurrently under a shared timeout.
// Checks registered through [WithOptional] (the render engine, the mail
// transport probe) only degrade the status; any other failing check makes
// the endpoint answer 503.
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//		"redis":     redis.Healthcheck(client),
//		"documents": engine.Probe,
//	}, health.WithOptional("documents")))
//
// Responses are plain text unless the client asks for JSON via the Accept
// header or ?format=json.
package health

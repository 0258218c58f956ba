// Package jobs provides the scheduled background tasks of the dispatch
// service, built on github.com/robfig/cron/v3 with second resolution.
//
// # Available Jobs
//
//  1. RouteRetryJob - every 30 seconds, resolves routes for claimed jobs whose
//     route computation failed at claim time
//  2. Session sweep - every minute, ends partner sessions idle past SESSION_IDLE_TTL
//  3. Channel sweep - every minute, forgets closed broadcast channels
//
// # Usage
//
//	jobManager := jobs.NewJobManager(jobRepo, assignRouteHandler, sessions, hub, settings, logger)
//	if err := jobManager.StartAll(); err != nil {
//		return err
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// A tick never fails the job. RouteUnavailable is expected while the routing
// service is down and is logged as a warning; every other error is logged
// and the next tick starts fresh.
package jobs

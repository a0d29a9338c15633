// Package scheduler allocates weekday half-day slots across competing
// projects.
//
// Two strategies are available. Paced interleaves projects. It keeps short
// runs together while touching every active project at least once every two
// weeks, and balances deadlines against the share of outstanding work. Frontload finishes projects one at a time in priority
// then deadline order. Both expand configured renewals before allocating and
// produce an immutable model.Schedule.
package scheduler

// Package services contains the application's business logic: refreshing the
// seasonal calendar, deciding which watched titles are due for a search,
// turning search results into queued download tasks and driving the queued
// tasks through the remote download pipeline. Services are composed by
// AppService, which runs them strictly one phase at a time.
package services

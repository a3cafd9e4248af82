// Package dispatcher implements ordered fallback over registered address providers.
//
// Every operation re-reads the registry, stable-sorts the registrations by ascending
// priority and asks each provider that supports the operation in turn. The first usable
// result wins and later providers are never called. Provider errors and panics are
// logged and absorbed; when nothing usable is found the operation returns its neutral
// value (nil or an empty slice) and never an error.
//
// Usage:
//
//	d := dispatcher.New(reg,
//	    dispatcher.WithLogger(logger),
//	    dispatcher.WithMetricsCollector(collector),
//	)
//	details := d.LookupDetails(ctx, "1 Main St")
package dispatcher

// Package observability traces and meters fixture loads and unloads with
// OpenTelemetry.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("billing-tests"))
//	defer tp.Shutdown(ctx)
//
// Every fixture Load and Unload then produces a fixture.load or
// fixture.unload span carrying the fixture name, table and row count.
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, &cfg)
//	defer mp.Shutdown(ctx)
//
// Fixtures report fixture.rows.loaded, fixture.rows.deleted and
// fixture.delete.failures through DefaultFixtureMetrics unless given their
// own FixtureMetrics.
package observability

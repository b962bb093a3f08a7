// Package engine routes request descriptions to handlers by their type tag and
// runs each found handler inside a fixed-delay retry loop.
//
// A description is an opaque map carrying at least a "type" field:
//
//	eng := engine.New(engine.WithLogger(log))
//	res, err := eng.Handle(ctx, engine.Description{
//		"type": "HTTP_GET",
//		"url":  "https://example.com",
//	}, engine.WithMaxAttempts(5), engine.WithDelay(2*time.Second))
//
// err is reserved for caller contract violations such as a description without
// a type. Expected failures, an unknown type or exhausted retries, come back as
// a Result whose OK method reports false.
package engine

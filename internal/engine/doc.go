// Package engine ties the map core into one running instance.
//
// An Engine owns the palette, the color matcher, the map store, the
// initialization handshake, the viewer hub and any Lua renderers. Every view
// it creates shares the palette and the hub and gets the Lua renderers in
// its pipeline. Run drives automatic updates on a ticker until its context
// is cancelled:
//
//	e, err := engine.New(engine.DefaultConfig(), log)
//	if err != nil {
//		return err
//	}
//	defer e.Close()
//	go e.Run(ctx)
//
// The tick interval and the row budget can be changed while running.
package engine

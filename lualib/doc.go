// Package lualib provides behaviors scripted in Lua. A script declares a
// global "behavior" table:
//
//	behavior = {
//		properties = {
//			color = "red",                         -- read/write slot
//			size = {                               -- accessor pair
//				get = function() return compute() end,
//				set = function(v) apply(v) end,
//			},
//		},
//		methods = {
//			describe = function() return "..." end,
//		},
//		events = {
//			save = function(e) e.handled = true end,
//		},
//	}
//
// ScriptBehavior bridges those tables into the host's property, method and
// event protocols: properties and methods appear as the host's own while
// attached, and event functions receive a table view of the Event with a
// writable "handled" flag.
//
// Each ScriptBehavior owns one Lua state and is single-threaded, matching
// the runtime's ownership model. Close releases the state.
package lualib

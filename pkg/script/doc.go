// Package script hosts Lua action handlers on top of pkg/server.
//
// Scripts load the "uhttpd" module (preloaded for require and also set as a
// global), create servers with uhttpd.new(address, port) and register
// handlers with srv:add_action(path, fn). A handler is called as fn(req, ctx)
// where ctx is a table snapshot of the request and req is the response token:
//
//	local uh = require("uhttpd")
//	local srv = assert(uh.new("127.0.0.1", 8080))
//	srv:add_action("/hello", function(req, ctx)
//		local body = "hello " .. (ctx.vars.name or "world")
//		uh.send_header(req, 200, "OK", #body)
//		uh.header_end(req)
//		uh.send(req, body)
//		uh.request_done(req)
//	end)
//
// The emitter functions are also available as methods on req
// (req:send_header(...)). Calls out of order raise a Lua error, which fails
// the dispatch.
//
// All Lua execution is serialized by the Runtime; gopher-lua states are not
// goroutine-safe.
package script

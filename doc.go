/*
Package apostrophe lets server-side code register snippets of browser-side
behavior and data while a page request is handled, then collapse those
registrations into deterministic blocks of client script embedded in the
rendered page.  It also renders page templates with a shared set of helper
filters, caching the template-resolution environment per directory set.

Usage example

On startup, build the Site once and register any global behavior:

	site, _ := apostrophe.New().
		ViewDir("app/views").
		Watch(mode == "dev").  // recompile templates on edit (in dev)
		Build()

	site.Push.PushGlobalCallWhen("always", "analytics.boot(?)", analyticsConf)
	site.Push.PushGlobalData(map[string]interface{}{"site": siteInfo})

While handling a request, attach a push.Scene to it and let handler code
accumulate calls and data:

	var scene push.Scene
	scene.PushCall("new @(?)", "Editor", editorOptions)
	scene.PushData(map[string]interface{}{"page": pageInfo})

To render the page, flush the accumulated state into script blocks, place
them in the template's data context, and render to the response:

	blocks, _ := site.ScriptBlocks(&scene, "user")
	site.Render.Render(resp, "page", map[string]interface{}{
		"title": title,
		"calls": blocks["calls"], "globalCalls": blocks["globalCalls"],
		"data": blocks["data"], "globalData": blocks["globalData"],
	})

The page skeleton embeds the blocks inside an inline script element (after
loading push/lib/runtime.js, which provides the client-side merge helper).
*/
package apostrophe

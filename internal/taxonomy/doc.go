// Package taxonomy reads and writes technique seed documents.
//
// A seed document is the portable form of the technique tree:
//
//	{
//	  "version": 1,
//	  "tree": [
//	    {"id": "root.guard", "title": "Guard", "status": "", "notes": "",
//	     "resources": [{"url": "https://...", "source": "youtube"}],
//	     "children": [...]}
//	  ]
//	}
//
// Node ids become technique slugs. JSON and YAML encodings are supported.
package taxonomy

package scraper

import (
	"encoding/json"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

const listTags = "ul, ol"

// Locate returns the text of every direct item of the first list that
// follows the first element matching marker. Items keep document order and
// are returned untrimmed, empty ones included.
//
// When either the marker or the list is missing, Locate returns an empty
// slice together with a *NotFoundError. An empty catalog is a valid result.
func Locate(doc *Document, marker string) ([]string, error) {
	anchor := doc.Find(marker).First()
	if anchor.Length() == 0 {
		return []string{}, &NotFoundError{Marker: marker, What: "marker"}
	}

	list := anchor.NextAllFiltered(listTags).First()
	if list.Length() == 0 {
		return []string{}, &NotFoundError{Marker: marker, What: "list"}
	}

	items := list.ChildrenFiltered("li")
	out := make([]string, 0, items.Length())
	items.Each(func(_ int, li *goquery.Selection) {
		out = append(out, li.Text())
	})
	return out, nil
}

// listReadyScript is a JavaScript expression that turns true once the first
// element matching marker has a list among its following siblings. It mirrors
// Locate, so a list rendered under a later marker does not count.
func listReadyScript(marker string) string {
	sel, _ := json.Marshal(marker)
	return fmt.Sprintf(`(() => {
	const marker = document.querySelector(%s);
	if (!marker) return false;
	for (let n = marker.nextElementSibling; n; n = n.nextElementSibling) {
		if (n.matches(%q)) return true;
	}
	return false;
})()`, sel, listTags)
}

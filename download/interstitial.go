package download

import (
	"bytes"
	"net/http"
	"net/url"
	"strings"

	dmerrors "github.com/Jumpaku/go-drivemap/errors"
	"golang.org/x/net/html"
)

// confirmURL returns the URL which downloads the file behind the virus scan warning page body,
// which was served for the request to requestURL.
//
// Older pages set a download_warning cookie whose value is passed as the confirm parameter.
// Newer pages carry a form whose action and hidden inputs make up the download URL.
func confirmURL(res *http.Response, requestURL string, body []byte) (string, error) {
	for _, c := range res.Cookies() {
		if strings.HasPrefix(c.Name, "download_warning") {
			return requestURL + "&confirm=" + url.QueryEscape(c.Value), nil
		}
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", dmerrors.NewFetchError("failed to parse warning page", err)
	}
	form := findForm(doc)
	if form == nil {
		return "", dmerrors.NewFetchError("warning page has no download form", nil)
	}

	base, err := url.Parse(requestURL)
	if err != nil {
		return "", dmerrors.NewFetchError("invalid request url", err)
	}
	action, err := url.Parse(attr(form, "action"))
	if err != nil {
		return "", dmerrors.NewFetchError("invalid download form action", err)
	}
	target := base.ResolveReference(action)

	query := url.Values{}
	for _, in := range hiddenInputs(form) {
		query.Set(attr(in, "name"), attr(in, "value"))
	}
	target.RawQuery = query.Encode()
	return target.String(), nil
}

// findForm returns the form with id download-form, or else the first form of the document.
func findForm(doc *html.Node) *html.Node {
	var first, download *html.Node
	for n := range doc.Descendants() {
		if n.Type != html.ElementNode || n.Data != "form" {
			continue
		}
		if first == nil {
			first = n
		}
		if attr(n, "id") == "download-form" {
			download = n
			break
		}
	}
	if download != nil {
		return download
	}
	return first
}

func hiddenInputs(form *html.Node) (inputs []*html.Node) {
	for n := range form.Descendants() {
		if n.Type == html.ElementNode && n.Data == "input" && attr(n, "type") == "hidden" && attr(n, "name") != "" {
			inputs = append(inputs, n)
		}
	}
	return inputs
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

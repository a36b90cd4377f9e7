// Package browser drives Chrome through chromedp to fetch the dataset archive.
//
// A Session is opened per pipeline attempt with downloads allowed into the
// run's download directory. Trigger clicks the configured download button and,
// if that fails, falls back to finding the archive link in the page with
// goquery and fetching it over plain HTTP.
package browser

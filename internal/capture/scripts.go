package capture

import (
	"fmt"
	"time"
)

// Page scripts are JavaScript expressions; Browser.Evaluate awaits promises.
const (
	scrollHeightJS = `document.body.scrollHeight`

	scrollTopJS = `window.scrollTo(0, 0)`

	imagesReadyJS = `Array.from(document.getElementsByTagName('img')).every(img => img.complete && img.naturalHeight !== 0)`

	requestsIdleJS = `(window.jQuery != null && jQuery.active == 0) ||
	(typeof fetch === 'function' && performance.getEntriesByType('resource').length > 0)`

	pageHeightJS = `Math.max(
	document.body.scrollHeight,
	document.body.offsetHeight,
	document.documentElement.clientHeight,
	document.documentElement.scrollHeight,
	document.documentElement.offsetHeight)`

	pageWidthJS = `Math.max(
	document.body.scrollWidth,
	document.body.offsetWidth,
	document.documentElement.clientWidth,
	document.documentElement.scrollWidth,
	document.documentElement.offsetWidth)`
)

func scrollToFractionJS(fraction float64) string {
	return fmt.Sprintf(`window.scrollTo(0, document.body.scrollHeight * %g)`, fraction)
}

// mutationCountJS resolves with the number of DOM mutations seen on body
// during window.
func mutationCountJS(window time.Duration) string {
	return fmt.Sprintf(`new Promise(resolve => {
	let changes = 0;
	const observer = new MutationObserver(() => { changes++; });
	observer.observe(document.body, {childList: true, subtree: true, attributes: true});
	setTimeout(() => { observer.disconnect(); resolve(changes); }, %d);
})`, window.Milliseconds())
}

package ui

import (
	"fmt"

	"github.com/cropfusion/cropfusion/internal/service"
)

// GeolocationEvent is the window event the position script dispatches; the
// form page listens for it and posts the detail back as signals.
const GeolocationEvent = "crop-geolocation"

// GeolocationScript asks the browser for its position and reports the
// outcome for the given attempt. Error codes map onto service.Geo*.
func GeolocationScript(attempt int) string {
	return fmt.Sprintf(`(() => {
  const send = (d) => window.dispatchEvent(new CustomEvent(%q, {detail: Object.assign({attempt: %d}, d)}));
  if (!("geolocation" in navigator)) { send({error: %q}); return; }
  navigator.geolocation.getCurrentPosition(
    (p) => send({lat: p.coords.latitude, lon: p.coords.longitude, error: ""}),
    (e) => send({error: e.code === 1 ? %q : e.code === 3 ? %q : %q}),
    {timeout: %d, maximumAge: 0},
  );
})()`,
		GeolocationEvent, attempt,
		service.GeoUnsupported,
		service.GeoDenied, service.GeoTimeout, service.GeoUnavailable,
		service.GeolocationTimeout.Milliseconds(),
	)
}

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/earthimagery/internal/core/domain"
	"github.com/samirrijal/earthimagery/internal/pkg/metrics"
)

// ImageryHandler returns a thumbnail URL for ?lon=&lat=&date=&dim=.
//
//	200 {"url": "..."}
//	400 unparseable lon, lat, date or dim
//	404 no image matched the year and location
//	503 no imagery platform session
//	500 anything else
func ImageryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := domain.ParseImageryRequest(c.Query("lon"), c.Query("lat"), c.Query("date"), c.Query("dim"))
		if err != nil {
			return writeServiceError(c, deps, err)
		}

		result, err := deps.Imagery.GetImagery(c.UserContext(), req)
		if err != nil {
			return writeServiceError(c, deps, err)
		}

		metrics.ImageryRequests.WithLabelValues("ok").Inc()
		c.Set(fiber.HeaderCacheControl, cacheNoStore)
		return c.JSON(result)
	}
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Earth Imagery</title>
  <style>
    body{font-family:system-ui,sans-serif;max-width:40rem;margin:3rem auto;padding:0 1rem}
    label{display:block;margin:.5rem 0}
    input{width:12rem}
    img{max-width:100%;margin-top:1rem}
    .error{color:#b00}
  </style>
</head>
<body>
  <h1>Earth Imagery</h1>
  <p>Least cloudy Sentinel-2 true-color image of a location for a given year.</p>
  <form id="lookup">
    <label>Longitude <input name="lon" value="-122.4194" required></label>
    <label>Latitude <input name="lat" value="37.7749" required></label>
    <label>Year <input name="date" value="2020" required></label>
    <label>Size (km) <input name="dim" value="0.1"></label>
    <button type="submit">Get image</button>
  </form>
  <p id="status"></p>
  <img id="thumb" alt="">
  <script>
    document.getElementById('lookup').addEventListener('submit', async (ev) => {
      ev.preventDefault();
      const status = document.getElementById('status');
      const img = document.getElementById('thumb');
      status.className = '';
      status.textContent = 'Loading...';
      img.removeAttribute('src');
      const params = new URLSearchParams(new FormData(ev.target));
      const resp = await fetch('/v5000/earth/imagery/?' + params);
      const body = await resp.json();
      if (!resp.ok) {
        status.className = 'error';
        status.textContent = body.error;
        return;
      }
      status.textContent = '';
      img.src = body.url;
    });
  </script>
</body>
</html>`

// IndexHandler serves the landing page.
func IndexHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(indexHTML)
	}
}

package httpapi

import (
	"strings"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
)

func pageTitle(p page) string {
	if p.Layout != nil && p.Layout.Title != "" {
		return p.Layout.Title
	}
	return "TuneCast player"
}

func pageVariant(p page) domain.PlayerVariant {
	if p.Layout != nil {
		return p.Layout.Variant
	}
	return domain.DefaultPlayerVariant
}

// pageState is "playback" once the controller laid out the player, "status" otherwise.
func pageState(p page) string {
	if p.Layout != nil {
		return "playback"
	}
	return "status"
}

func isVideo(mimeType string) bool {
	return strings.HasPrefix(mimeType, "video/")
}

func slugScript(slug string) string {
	return "<script>window.__UX_EMBED_SLUG__ = '" + slug + "';</script>"
}

// embedScript advances through the track list in the browser and shows the
// play hint when autoplay is refused.
const embedScript = `<script>(function () {
var root = document.querySelector('.player-root');
var media = root && root.querySelector('.player-audio');
if (!media) return;
var feedback = root.querySelector('.playback-feedback');
var label = root.querySelector('.now-playing');
var items = Array.prototype.slice.call(root.querySelectorAll('.track-list .track'));
var loop = root.dataset.variant === 'background';
var current = 0;
function transient() { return feedback && !feedback.hasAttribute('data-persistent'); }
function hint() { if (!loop && transient()) { feedback.textContent = 'Press play to start the stream.'; feedback.hidden = false; } }
function select(i) {
  var item = items[i];
  if (!item) return;
  current = i;
  media.src = item.dataset.src;
  items.forEach(function (el, j) { if (j === i) { el.setAttribute('aria-current', 'true'); } else { el.removeAttribute('aria-current'); } });
  if (label) label.textContent = item.dataset.label;
}
function play() { var p = media.play(); if (p && p.catch) p.catch(hint); }
items.forEach(function (el, i) { el.addEventListener('click', function () { select(i); play(); }); });
media.addEventListener('play', function () { if (transient()) feedback.hidden = true; });
media.addEventListener('ended', function () {
  var next = current + 1;
  if (next >= items.length) { if (!loop) return; next = 0; }
  select(next);
  play();
});
play();
})();</script>`

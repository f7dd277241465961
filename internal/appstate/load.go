package appstate

import (
	"image"

	log "github.com/sirupsen/logrus"

	"github.com/example/polymark/internal/viewport"
)

// LoadToken identifies one image load. Only the most recent token is honoured.
type LoadToken uint64

// BeginLoad starts loading ref. The annotations and gesture state are reset
// and drawing is disabled until CompleteLoad is called with the returned
// token. A later BeginLoad makes earlier tokens stale.
func (m *Machine) BeginLoad(ref string) LoadToken {
	m.reset("load")
	m.img = ImageInfo{Ref: ref, Status: ImageLoading}
	m.log.WithFields(log.Fields{"ref": ref, "token": m.token}).Info("loading image")
	return LoadToken(m.token)
}

func (m *Machine) reset(op string) {
	prev := m.State()
	m.token++
	m.set.Reset()
	m.dragging = false
	m.moved = false
	m.pressed = false
	m.notice = ""
	m.view = viewport.Identity()
	m.img = ImageInfo{}
	if prev != StateIdle {
		m.transition(op, prev, StateIdle)
	}
}

// CompleteLoad marks the image as ready and fits it to the stage. Stale
// tokens are ignored and reported as false.
func (m *Machine) CompleteLoad(tok LoadToken, size image.Point) bool {
	if uint64(tok) != m.token || m.img.Status != ImageLoading {
		m.log.WithField("token", tok).Debug("stale image load ignored")
		return false
	}
	m.img.Size = size
	m.img.Status = ImageReady
	m.view = viewport.FitToStage(size, m.stage)
	m.log.WithFields(log.Fields{"ref": m.img.Ref, "width": size.X, "height": size.Y}).Info("image ready")
	return true
}

// FailLoad records a decode or fetch failure. The editor then behaves as if
// no image were loaded.
func (m *Machine) FailLoad(tok LoadToken, err error) bool {
	if uint64(tok) != m.token || m.img.Status != ImageLoading {
		return false
	}
	m.img.Status = ImageFailed
	m.img.Err = err
	m.log.WithError(err).WithField("ref", m.img.Ref).Warn("image load failed")
	return true
}

// Unload forgets the image and all annotations.
func (m *Machine) Unload() { m.reset("unload") }

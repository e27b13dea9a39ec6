//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && !cgo

package clipboard

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// Without cgo the clipboard is served straight over the X11 protocol: a
// hidden window owns the CLIPBOARD selection and answers PNG requests.

var (
	initOnce sync.Once
	initErr  error
	owner    *x11Owner

	errConnClosed = errors.New("X server connection closed")
)

func ensureInit() error {
	initOnce.Do(func() {
		if !hasDisplay() {
			initErr = errNoDisplay
			return
		}
		owner, initErr = newX11Owner()
	})
	return initErr
}

// WritePNG publishes PNG-encoded data.
func WritePNG(data []byte) error {
	if err := ensureInit(); err != nil {
		return err
	}
	return owner.publish(data)
}

// ReadPNG returns the PNG currently on the clipboard.
func ReadPNG() ([]byte, error) {
	if err := ensureInit(); err != nil {
		return nil, err
	}
	data, err := owner.request()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNoImage
	}
	return data, nil
}

type x11Atoms struct {
	clipboard, targets, png, property xproto.Atom
}

type x11Owner struct {
	conn   *xgb.Conn
	window xproto.Window
	atoms  x11Atoms

	mu  sync.RWMutex
	png []byte
}

func newX11Owner() (*x11Owner, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	win, err := hiddenWindow(conn, xproto.EventMaskPropertyChange)
	if err != nil {
		conn.Close()
		return nil, err
	}
	atoms, err := lookupAtoms(conn)
	if err != nil {
		xproto.DestroyWindow(conn, win)
		conn.Close()
		return nil, err
	}
	o := &x11Owner{conn: conn, window: win, atoms: atoms}
	go o.serve()
	return o, nil
}

func hiddenWindow(conn *xgb.Conn, mask uint32) (xproto.Window, error) {
	screen := xproto.Setup(conn).DefaultScreen(conn)
	win, err := xproto.NewWindowId(conn)
	if err != nil {
		return 0, err
	}
	err = xproto.CreateWindowChecked(conn, 0, win, screen.Root, 0, 0, 1, 1, 0,
		xproto.WindowClassInputOnly, 0, xproto.CwEventMask, []uint32{mask}).Check()
	if err != nil {
		return 0, fmt.Errorf("create clipboard window: %w", err)
	}
	return win, nil
}

func lookupAtoms(conn *xgb.Conn) (x11Atoms, error) {
	names := []string{"CLIPBOARD", "TARGETS", "image/png", "GROWTHRING_CLIPBOARD"}
	found := make([]xproto.Atom, len(names))
	for i, name := range names {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			return x11Atoms{}, fmt.Errorf("intern atom %s: %w", name, err)
		}
		found[i] = reply.Atom
	}
	return x11Atoms{clipboard: found[0], targets: found[1], png: found[2], property: found[3]}, nil
}

func (o *x11Owner) publish(data []byte) error {
	o.mu.Lock()
	o.png = append([]byte(nil), data...)
	o.mu.Unlock()
	return xproto.SetSelectionOwnerChecked(o.conn, o.window, o.atoms.clipboard, xproto.TimeCurrentTime).Check()
}

func (o *x11Owner) serve() {
	for {
		ev, xerr := o.conn.WaitForEvent()
		if ev == nil && xerr == nil {
			return
		}
		if xerr != nil {
			continue
		}
		switch e := ev.(type) {
		case xproto.SelectionRequestEvent:
			o.answer(e)
		case xproto.SelectionClearEvent:
			o.mu.Lock()
			o.png = nil
			o.mu.Unlock()
		}
	}
}

// answer replies to another client asking for our selection.
func (o *x11Owner) answer(e xproto.SelectionRequestEvent) {
	o.mu.RLock()
	data := o.png
	o.mu.RUnlock()

	prop := e.Property
	if prop == xproto.AtomNone {
		prop = e.Target
	}
	switch {
	case e.Target == o.atoms.targets:
		targets := []xproto.Atom{o.atoms.targets}
		if len(data) > 0 {
			targets = append(targets, o.atoms.png)
		}
		buf := make([]byte, 4*len(targets))
		for i, a := range targets {
			xgb.Put32(buf[i*4:], uint32(a))
		}
		xproto.ChangeProperty(o.conn, xproto.PropModeReplace, e.Requestor, prop, xproto.AtomAtom, 32, uint32(len(targets)), buf)
	case e.Target == o.atoms.png && len(data) > 0:
		xproto.ChangeProperty(o.conn, xproto.PropModeReplace, e.Requestor, prop, o.atoms.png, 8, uint32(len(data)), data)
	default:
		prop = xproto.AtomNone
	}

	reply := xproto.SelectionNotifyEvent{
		Time:      e.Time,
		Requestor: e.Requestor,
		Selection: e.Selection,
		Target:    e.Target,
		Property:  prop,
	}
	xproto.SendEvent(o.conn, false, e.Requestor, 0, string(reply.Bytes()))
}

// request asks the current selection owner for PNG data on a private
// connection so it cannot race with serve.
func (o *x11Owner) request() ([]byte, error) {
	o.mu.RLock()
	mine := o.png
	o.mu.RUnlock()
	if len(mine) > 0 {
		return append([]byte(nil), mine...), nil
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	win, err := hiddenWindow(conn, xproto.EventMaskPropertyChange)
	if err != nil {
		return nil, err
	}
	defer xproto.DestroyWindow(conn, win)

	err = xproto.ConvertSelectionChecked(conn, win, o.atoms.clipboard, o.atoms.png, o.atoms.property, xproto.TimeCurrentTime).Check()
	if err != nil {
		return nil, err
	}
	return awaitSelection(conn.WaitForEvent, func() ([]byte, error) {
		reply, err := xproto.GetProperty(conn, true, win, o.atoms.property, xproto.GetPropertyTypeAny, 0, (1<<31)-1).Reply()
		if err != nil {
			return nil, err
		}
		return append([]byte(nil), reply.Value...), nil
	})
}

// awaitSelection waits for the SelectionNotify answering our request and
// fetches the property it names. X errors for other requests are skipped.
func awaitSelection(next func() (xgb.Event, xgb.Error), fetch func() ([]byte, error)) ([]byte, error) {
	for {
		ev, xerr := next()
		if ev == nil && xerr == nil {
			return nil, errConnClosed
		}
		if xerr != nil {
			continue
		}
		notify, ok := ev.(xproto.SelectionNotifyEvent)
		if !ok {
			continue
		}
		if notify.Property == xproto.AtomNone {
			return nil, ErrNoImage
		}
		return fetch()
	}
}

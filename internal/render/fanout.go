package render

import "errors"

// Fanout writes each frame to every driver. All drivers are written even
// if one fails; the errors are joined.
type Fanout []Driver

func (f Fanout) Write(fr *Frame) error {
	var errs []error
	for _, d := range f {
		if d == nil {
			continue
		}
		if err := d.Write(fr); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Package sizetest provides test doubles for code built on sizewatch.
//
// Box is an element whose size tests can change at will. Provider is a
// capability provider whose installs only complete when the test says
// so, which makes the asynchronous preparation window explicit:
//
//	p := sizetest.NewProvider()
//	box := sizetest.NewBox(100, 50)
//	det := detector.New(p, detector.WithCallOnAdd(false))
//
//	rec := sizetest.NewRecorder()
//	_ = det.ListenTo(ctx, element.One(box), rec.Listener())
//
//	box.Resize(120, 50) // resize while the install is pending
//	p.Complete(box)     // install finishes
//
//	rec.Count() // 1, reported by the race check
//
// Fire simulates an observed size change after installation.
package sizetest

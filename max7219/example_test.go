// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package max7219_test

import (
	"log"

	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/segclock/max7219"
)

func Example() {
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	s, err := spireg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	dev, err := max7219.NewSPI(s, &max7219.Opts{Intensity: 4})
	if err != nil {
		log.Fatal(err)
	}
	if err := dev.ShowValue(1234); err != nil {
		log.Fatal(err)
	}
}

package dctenum

// BitSource supplies the direction bit embed draws when a coefficient's
// LSB must change. internal/entropy.Source satisfies this.
type BitSource interface {
	Bit() (byte, error)
}

// Embed sets the LSB of coef to bit. If the LSB already matches, coef is
// returned unchanged. Otherwise a direction bit is drawn from src: +1 if
// the direction is 1, -1 if 0, with the direction forced away from
// whichever sign would overflow the int16 coefficient range.
func Embed(coef int16, bit byte, src BitSource) (int16, error) {
	if byte(coef&1) == bit&1 {
		return coef, nil
	}

	d, err := src.Bit()
	if err != nil {
		return 0, err
	}
	if d == 1 && coef == 32767 {
		d = 0
	}
	if d == 0 && coef == -32768 {
		d = 1
	}
	if d == 1 {
		coef++
	} else {
		coef--
	}
	return coef, nil
}

// Extract returns the LSB of coef.
func Extract(coef int16) byte {
	return byte(coef & 1)
}

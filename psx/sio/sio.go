// Package sio implements Serial I/O Port 0: the synchronous transaction
// between the host and a controller port, modeling a digital or analog
// joypad, per spec.md §4.8.
package sio

// Status is the 32-bit SIO_STAT register (only the bits this port models
// are exposed; the rest read back as zero).
type Status struct {
	TxReady             bool
	RxReady             bool
	TxFinished          bool
	DeviceReadyToReceive bool
	InterruptRequest    bool
}

func (s Status) Raw() uint32 {
	var v uint32
	if s.TxReady {
		v |= 1 << 0
	}
	if s.RxReady {
		v |= 1 << 1
	}
	if s.TxFinished {
		v |= 1 << 2
	}
	if s.DeviceReadyToReceive {
		v |= 1 << 7
	}
	if s.InterruptRequest {
		v |= 1 << 9
	}
	return v
}

// BaudrateFactor is the mode register's baudrate-reload-factor field.
type BaudrateFactor int

const (
	BaudrateTimes1OrStop BaudrateFactor = iota
	BaudrateTimes1
	BaudrateTimes16
	BaudrateTimes64
)

// CharacterLength is the mode register's character-length field; SIO0
// transfers are always 8 bits, but the field is modeled for completeness.
type CharacterLength int

const (
	CharacterLength5 CharacterLength = iota
	CharacterLength6
	CharacterLength7
	CharacterLength8
)

// Mode is the 16-bit SIO_MODE register.
type Mode struct {
	BaudrateFactor   BaudrateFactor
	CharacterLength  CharacterLength
	ParityEnable     bool
	ParityOdd        bool
	ClockPolarity    bool
}

func DecodeMode(value uint16) Mode {
	return Mode{
		BaudrateFactor:  BaudrateFactor(value & 0x3),
		CharacterLength: CharacterLength((value >> 2) & 0x3),
		ParityEnable:    value&(1<<4) != 0,
		ParityOdd:       value&(1<<5) != 0,
		ClockPolarity:   value&(1<<8) != 0,
	}
}

func (m Mode) Raw() uint16 {
	var v uint16
	v |= uint16(m.BaudrateFactor) & 0x3
	v |= (uint16(m.CharacterLength) & 0x3) << 2
	if m.ParityEnable {
		v |= 1 << 4
	}
	if m.ParityOdd {
		v |= 1 << 5
	}
	if m.ClockPolarity {
		v |= 1 << 8
	}
	return v
}

// Control is the 16-bit SIO_CTRL register.
type Control struct {
	TxEnable                               bool
	Selected                                bool
	RxEnable                                bool
	Acknowledge                             bool
	ReadyToReceive                          bool
	Reset                                   bool
	TxInterruptEnable                       bool
	RxInterruptEnable                       bool
	DeviceReadyToReceiveInterruptEnable     bool
	PortSelect                              bool
}

func DecodeControl(value uint16) Control {
	return Control{
		TxEnable:                           value&(1<<0) != 0,
		Selected:                           value&(1<<1) != 0,
		RxEnable:                           value&(1<<2) != 0,
		Acknowledge:                        value&(1<<4) != 0,
		ReadyToReceive:                     value&(1<<5) != 0,
		Reset:                              value&(1<<6) != 0,
		TxInterruptEnable:                  value&(1<<10) != 0,
		RxInterruptEnable:                  value&(1<<11) != 0,
		DeviceReadyToReceiveInterruptEnable: value&(1<<12) != 0,
		PortSelect:                         value&(1<<13) != 0,
	}
}

func (c Control) Raw() uint16 {
	var v uint16
	if c.TxEnable {
		v |= 1 << 0
	}
	if c.Selected {
		v |= 1 << 1
	}
	if c.RxEnable {
		v |= 1 << 2
	}
	if c.Acknowledge {
		v |= 1 << 4
	}
	if c.ReadyToReceive {
		v |= 1 << 5
	}
	if c.Reset {
		v |= 1 << 6
	}
	if c.TxInterruptEnable {
		v |= 1 << 10
	}
	if c.RxInterruptEnable {
		v |= 1 << 11
	}
	if c.DeviceReadyToReceiveInterruptEnable {
		v |= 1 << 12
	}
	if c.PortSelect {
		v |= 1 << 13
	}
	return v
}

// Input is the digital-button bitfield reported by a pad in its reply data
// (the wire format inverts every bit: a pressed button is a 0).
type Input struct {
	Select, L3, R3, Start                 bool
	Up, Right, Down, Left                 bool
	L2, R2, L1, R1                        bool
	Triangle, Circle, Cross, Square       bool
}

// Raw packs the state into the two little-endian reply bytes, already
// inverted so a pressed button reads back as 0 (the PSX's usual polarity).
func (i Input) Raw() uint16 {
	var v uint16
	set := func(bit uint, pressed bool) {
		if pressed {
			v |= 1 << bit
		}
	}
	set(0, i.Select)
	set(1, i.L3)
	set(2, i.R3)
	set(3, i.Start)
	set(4, i.Up)
	set(5, i.Right)
	set(6, i.Down)
	set(7, i.Left)
	set(8, i.L2)
	set(9, i.R2)
	set(10, i.L1)
	set(11, i.R1)
	set(12, i.Triangle)
	set(13, i.Circle)
	set(14, i.Cross)
	set(15, i.Square)
	return ^v
}

// JoystickInput is one analog stick's two 8-bit axes.
type JoystickInput struct {
	X, Y uint8
}

// Joypad is the full input state the host mutates from its own input
// system: digital buttons plus both analog sticks.
type Joypad struct {
	Input         Input
	LeftJoystick  JoystickInput
	RightJoystick JoystickInput
	Analog        bool
}

// replyMode returns the joypad ID byte a GetID-style exchange replies with:
// 0x41 digital, 0x73 analog, per spec.md §4.8.
func (j Joypad) replyMode() uint8 {
	if j.Analog {
		return 0x73
	}
	return 0x41
}

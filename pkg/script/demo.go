package script

// Echo is the control program used when no script is configured.
// Every LED byte shows the switch byte of its slot. While switch 1 of slot 0
// is on the rightmost LED of slot 1 blinks instead of following its switch.
const Echo = `
while true do
	set(P2, get(P3))
	local sw = get(P5)
	if read(0x80) == ON then
		-- bit 0 stays with the blinker
		set(P1, sw - sw % 2 + get(P1) % 2)
		blink(0x01, B1, P1)
	else
		set(P1, sw)
	end
	set(P6, get(P7))
	wait(1)
end
`

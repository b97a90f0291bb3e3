package ui

// iconBytes is a 16x16 PNG used for the tray icon.
var iconBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x10,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0xf3, 0xff, 0x61, 0x00, 0x00, 0x00,
	0x23, 0x49, 0x44, 0x41, 0x54, 0x78, 0xda, 0x63, 0x60, 0x00, 0x82, 0x1a,
	0xab, 0xb7, 0xff, 0xc9, 0xc1, 0x0c, 0x94, 0x68, 0x86, 0x1b, 0x32, 0x6a,
	0xc0, 0xa8, 0x01, 0xa3, 0x06, 0x50, 0xc9, 0x00, 0x4a, 0xb3, 0x33, 0x00,
	0xe5, 0x26, 0x97, 0x97, 0xa1, 0xca, 0x44, 0x2c, 0x00, 0x00, 0x00, 0x00,
	0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

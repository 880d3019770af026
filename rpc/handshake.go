package rpc

import "io"

// signature is the three-byte magic exchanged in both directions before any
// record traffic.
var signature = [3]byte{0x6f, 0x78, 0x00}

// HandshakeClient performs the client side of the handshake: send our
// signature, then read and verify the peer's.
func (c *Connection) HandshakeClient() (err error) {
	defer wrapErr(&err, "HandshakeClient")
	if err = c.sendSignature(); err != nil {
		c.fail(err)
		return err
	}
	if err = c.recvSignature(); err != nil {
		c.fail(err)
		return err
	}
	return nil
}

// HandshakeServer performs the server side of the handshake: read and verify
// the peer's signature, then send ours.
func (c *Connection) HandshakeServer() (err error) {
	defer wrapErr(&err, "HandshakeServer")
	if err = c.recvSignature(); err != nil {
		c.fail(err)
		return err
	}
	if err = c.sendSignature(); err != nil {
		c.fail(err)
		return err
	}
	return nil
}

func (c *Connection) sendSignature() error {
	if _, err := c.w.Write(signature[:]); err != nil {
		return err
	}
	return c.w.Flush()
}

func (c *Connection) recvSignature() error {
	var got [3]byte
	if _, err := io.ReadFull(c.r, got[:]); err != nil {
		return err
	}
	if got != signature {
		return ErrSignatureMismatch
	}
	return nil
}

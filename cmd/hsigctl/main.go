package main

import (
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/hybridsig/hsig"

	"github.com/urfave/cli"
)

func parseSpeed(s string) (hsig.SpeedSetting, error) {
	switch s {
	case "", "fast":
		return hsig.SpeedFast, nil
	case "slow":
		return hsig.SpeedSlow, nil
	}
	return 0, fmt.Errorf("unknown speed setting %q (want fast or slow)", s)
}

func parseFault(s string) (hsig.FaultStrategy, error) {
	switch s {
	case "", "none":
		return hsig.FaultNone, nil
	case "fatal":
		return hsig.FaultFatal, nil
	case "recover":
		return hsig.FaultRecover, nil
	}
	return 0, fmt.Errorf("unknown fault strategy %q (want none, fatal or recover)", s)
}

func cfgOpts(c *cli.Context) ([]hsig.Option, error) {
	speed, err := parseSpeed(c.String("speed"))
	if err != nil {
		return nil, err
	}
	fault, err := parseFault(c.String("fault"))
	if err != nil {
		return nil, err
	}
	return []hsig.Option{
		hsig.WithSpeedSetting(speed),
		hsig.WithFaultStrategy(fault),
		hsig.WithDummyLoad(c.Bool("dummy-load")),
		hsig.WithProfiling(c.Bool("profile")),
	}, nil
}

func cmdAlgs(c *cli.Context) error {
	fmt.Println("hybrid-lms-sphincs192s-simple (SHA-256/192)")
	fmt.Println("  speed settings: fast (LMS W=4, p=51), slow (LMS W=2, p=101)")
	fmt.Println("  fault strategies: none, fatal, recover")
	return nil
}

func cmdKeygen(c *cli.Context) error {
	opts, err := cfgOpts(c)
	if err != nil {
		return err
	}
	pk, sk, err := hsig.Keygen(nil, opts...)
	if err != nil {
		return err
	}
	defer sk.Zero()

	if err := ioutil.WriteFile(c.String("pub"), pk.Bytes(), 0644); err != nil {
		return err
	}
	if err := ioutil.WriteFile(c.String("priv"), sk.Bytes(), 0600); err != nil {
		return err
	}
	fmt.Printf("wrote %s and %s\n", c.String("pub"), c.String("priv"))
	return nil
}

func loadSigner(c *cli.Context) (*hsig.Signer, error) {
	opts, err := cfgOpts(c)
	if err != nil {
		return nil, err
	}
	raw, err := ioutil.ReadFile(c.String("priv"))
	if err != nil {
		return nil, err
	}
	sk, err := hsig.ParseSecretKey(raw)
	if err != nil {
		return nil, err
	}
	defer sk.Zero()
	return hsig.Load(sk, nil, opts...)
}

func cmdSign(c *cli.Context) error {
	s, err := loadSigner(c)
	if err != nil {
		return err
	}
	defer s.Delete()

	msg, err := ioutil.ReadFile(c.String("msg"))
	if err != nil {
		return err
	}
	dst := make([]byte, hsig.SignatureSize(s.Config()))
	nWritten, err := s.Sign(dst, msg)
	if err != nil {
		return err
	}
	if err := ioutil.WriteFile(c.String("sig"), dst[:nWritten], 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d bytes)\n", c.String("sig"), nWritten)
	return nil
}

func cmdVerify(c *cli.Context) error {
	pubRaw, err := ioutil.ReadFile(c.String("pub"))
	if err != nil {
		return err
	}
	pk, err := hsig.ParsePublicKey(pubRaw)
	if err != nil {
		return err
	}
	msg, err := ioutil.ReadFile(c.String("msg"))
	if err != nil {
		return err
	}
	sig, err := ioutil.ReadFile(c.String("sig"))
	if err != nil {
		return err
	}

	ok, err := hsig.Verify(pk, msg, sig)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("INVALID")
		os.Exit(1)
	}
	fmt.Println("OK")
	return nil
}

func cmdPubkey(c *cli.Context) error {
	raw, err := ioutil.ReadFile(c.String("priv"))
	if err != nil {
		return err
	}
	sk, err := hsig.ParseSecretKey(raw)
	if err != nil {
		return err
	}
	defer sk.Zero()
	fmt.Println(hex.EncodeToString((&hsig.PublicKey{ParamTag: sk.ParamTag, PkSeed: sk.PkSeed, PkRoot: sk.PkRoot}).Bytes()))
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "hsigctl"
	app.Usage = "hybrid LMS/SPHINCS+ signer: keygen, pubkey, sign, verify"

	speedFlag := cli.StringFlag{Name: "speed", Value: "fast", Usage: "fast or slow"}
	faultFlag := cli.StringFlag{Name: "fault", Value: "none", Usage: "none, fatal or recover"}
	dummyFlag := cli.BoolFlag{Name: "dummy-load", Usage: "equalize step_next latency with throwaway compressions"}
	profileFlag := cli.BoolFlag{Name: "profile", Usage: "count hash compressions"}

	app.Commands = []cli.Command{
		{
			Name:  "algs",
			Usage: "describe the supported parameter sets",
			Action: cmdAlgs,
		},
		{
			Name:  "keygen",
			Usage: "generate a key pair",
			Flags: []cli.Flag{
				speedFlag, faultFlag,
				cli.StringFlag{Name: "pub", Value: "hsig.pub"},
				cli.StringFlag{Name: "priv", Value: "hsig.key"},
			},
			Action: cmdKeygen,
		},
		{
			Name:  "pubkey",
			Usage: "print the public key embedded in a secret key file",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "priv", Value: "hsig.key"},
			},
			Action: cmdPubkey,
		},
		{
			Name:  "sign",
			Usage: "load a secret key and sign a message",
			Flags: []cli.Flag{
				speedFlag, faultFlag, dummyFlag, profileFlag,
				cli.StringFlag{Name: "priv", Value: "hsig.key"},
				cli.StringFlag{Name: "msg", Usage: "path to the message to sign"},
				cli.StringFlag{Name: "sig", Value: "hsig.sig"},
			},
			Action: cmdSign,
		},
		{
			Name:  "verify",
			Usage: "verify a signature against a public key",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "pub", Value: "hsig.pub"},
				cli.StringFlag{Name: "msg"},
				cli.StringFlag{Name: "sig", Value: "hsig.sig"},
			},
			Action: cmdVerify,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

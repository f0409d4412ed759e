package config

import (
	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/types"
)

// Well-known accounts endowed by every built-in profile.
var (
	Alith     = common.MustParseAddress("0x2FBAC9dE90e988fB2014FC8Aa08cf452e5E5E515")
	Baltathar = common.MustParseAddress("0xF3c25Ea246B52a901b47CDAE1ecD3039246Ab31d")
	Charleth  = common.MustParseAddress("0xac0103172516afe69E9F3D3EB451cb6382b3A0EB")
	Dorothy   = common.MustParseAddress("0x2651E1424Fa908982eBAA6aaCdf899E8783B028f")
)

const (
	devAliceSr25519 = "0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
	devAliceEd25519 = "0x88dc3417d5058ec4b4503e0c12ea1a0a89be200fe98922423d4334014fa6b0ee"
)

func mustKey(s string) types.SessionKey {
	k, err := types.ParseSessionKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

func authority(addr common.Address, aura, grandpa, imOnline string) types.Authority {
	return types.Authority{
		Address: addr,
		Keys: types.SessionKeys{
			Aura:     mustKey(aura),
			Grandpa:  mustKey(grandpa),
			ImOnline: mustKey(imOnline),
		},
	}
}

func gnf(n uint64) Amount { return Amount{value: types.GNF(n)} }

// Development is the single-authority profile used for local development.
func Development() *Profile {
	return &Profile{
		Name:      "Development",
		ID:        "dev",
		ChainType: ChainDevelopment,
		Authorities: []types.Authority{
			authority(Alith, devAliceSr25519, devAliceEd25519, devAliceSr25519),
		},
		Root: Alith,
		Endowed: []Endowment{
			{Address: Alith, Balance: gnf(1000)},
			{Address: Baltathar, Balance: gnf(1_755_000_000)},
			{Address: Charleth, Balance: gnf(66_000_000)},
			{Address: Dorothy, Balance: gnf(194_999_000)},
		},
		Properties: DefaultProperties(),
	}
}

// LocalTestnet is the four-authority public test network.
func LocalTestnet() *Profile {
	return &Profile{
		Name:      "GlobalFoundation Testnet",
		ID:        "GlobalFoundation",
		ChainType: ChainLocal,
		Authorities: []types.Authority{
			authority(Alith,
				"0xd0ddca2479244563462089ace77b02a321c0ebb477e5d58aadcf9c96550c6c6c",
				"0x0e5d8ae48c24170cf741147405423a21ba274d6bb92722f80b28035dd607ee0f",
				"0xbcae62f9a0032a4cc88aa1df2083d41baf8e42dfc4a1307d98d52eec6e6fed0c"),
			authority(Baltathar,
				"0xc49f37c8db3c61026050d8df64564f82c3617b407d338852745d43af0bed656a",
				"0xd5e3e025405a775a832eab1a07ab3806d532d54c3334b999591f295de4cdc06f",
				"0x9c6c000297311ff8e611de88a3c9f870afdb31cf2966f762d378b7adc0e2ff0c"),
			authority(Charleth,
				"0xa2a2444ab2a6464c8ed775037b5f78965e3ac946d1d496bd2be891bf0d6ac164",
				"0x820a3a71c721d6c25d3577c5b7c286b0d30bdb17b1f25ecc4a37526ea61ce330",
				"0x8642122d2105edd69a2f5d35dddcd98f11af7295627a6178798dbef69e7afd03"),
			authority(Dorothy,
				"0x3cbeec7addfc9d98537343da13aac5addb35c7e41d5aa8a52c0af08783987701",
				"0x9e0fe45cd81f78fb2e793a46d17f783d6c0e44ae04f736563c94647a1a9d3bd5",
				"0xaa3cd41bdb289e6e819c9b6ce3597b4c8875f6386bf8a185c68ac5be77225e43"),
		},
		Root: Alith,
		Endowed: []Endowment{
			{Address: Alith, Balance: gnf(1000)},
			{Address: Baltathar, Balance: gnf(1_755_000_000)},
			{Address: Charleth, Balance: gnf(66_000_000)},
			{Address: Dorothy, Balance: gnf(194_999_000)},
		},
		Bootnodes: []string{
			"/ip4/128.199.5.56/tcp/30333/p2p/12D3KooWKN78A6J3qMQVqdeN24jvQTxbq2oc9KPYsU6UJP9zqAKw",
			"/ip4/167.71.184.0/tcp/30333/p2p/12D3KooWSuqj8A8dhFdqNHuDy2GztYESDap9EKjQpbn8GsFzmE7M",
			"/ip4/167.71.92.0/tcp/30333/p2p/12D3KooWQvHq6ALB1UT7LdygR464PcdwX84uH2WGLemcyQyhHQV7",
			"/ip4/167.172.246.0/tcp/30333/p2p/12D3KooWDxNG3UD7T3QZ3CVNJ2LCMhpfTqFBMGkRCop8phKexqsA",
		},
		Properties: DefaultProperties(),
	}
}

// Mainnet is the production profile.
func Mainnet() *Profile {
	return &Profile{
		Name:      "Global Foundation Mainnet",
		ID:        "public_live",
		ChainType: ChainLive,
		Authorities: []types.Authority{
			authority(Alith,
				"0x469af7baae9f43aa9eed5db7c13c25474d299093934dc0d112c31e26935d7f12",
				"0xbaabfa2e04240e1a0496181f09d2bf6301d270b4945afe3ccef88d3e3957096f",
				"0x78c8c415434d9f07eb8c005ad63cc9c9510a3dc9037315494168c2a9bc50f870"),
			authority(Baltathar,
				"0xc02ed3d8dae2da54d510700cd2aecea0abd8bf474c954762655528d86af13b06",
				"0x58e59fab0f5d6a3c4692f4b602e85165286e4f09f15a673e4a1058a0c7426a76",
				"0xb282f91c01ad185d72986ec20d38b9e7b9b881aa00a0f0909f4e347b6d68f33c"),
			authority(Charleth,
				"0x0269f072fdc7dd2fcb8c9d43f01824eab0003f66f5bba12607ca858e95814d0f",
				"0xf3edd6930998935bc773ead7788062afa5a4521e060ede6a8be8b0ec642a2cc7",
				"0x926b059ae0259fd5caad7dc8433748acff41fbd03e04d31c0562d047e3932500"),
			authority(Dorothy,
				"0xf88c4d10063dbac79b84ccd502d491947330dd08422a147b2afa5fb422235b13",
				"0xb1484b312b581926e816253ca6e84c38ed4c442a48ee1d4da4b83b32e199d3c7",
				"0xe0330096b62c3bf69f927625cfe2eedbeabd0f424dadaf1ac6739a7fd598cb74"),
		},
		Root: Alith,
		Endowed: []Endowment{
			{Address: Alith, Balance: gnf(24_750_000)},
			{Address: Baltathar, Balance: gnf(24_750_000)},
			{Address: Charleth, Balance: gnf(24_750_000)},
			{Address: Dorothy, Balance: gnf(24_750_000)},
		},
		Bootnodes: []string{
			"/ip4/2.58.80.231/tcp/30333/p2p/12D3KooWQkRtjCWbdFdirGr76xfvB4W1WiJWW2ZCZzBBGvZWixQy",
			"/ip4/2.58.80.230/tcp/30333/p2p/12D3KooWAWtiYVcEDB5QrEcMUC3FdwsM9bsDe4kqFDjcjY1KiuA6",
			"/ip4/194.163.139.100/tcp/30333/p2p/12D3KooWChLxahZPDCrDiy5hBWeoy29GTQFQ3jnXpBCQpUr2QqeF",
			"/ip4/2.58.80.229/tcp/30333/p2p/12D3KooWMeyNeHAawVLBPv4bjhuHdiVYP2mBgAc9oNGWZChaVH86",
		},
		Properties: DefaultProperties(),
	}
}

// ProfileByID returns a fresh copy of a built-in profile. Besides the profile ids, the
// short names dev, local and live are accepted.
func ProfileByID(id string) (*Profile, bool) {
	switch id {
	case "dev", "":
		return Development(), true
	case "local", "GlobalFoundation":
		return LocalTestnet(), true
	case "live", "public_live":
		return Mainnet(), true
	}
	return nil, false
}

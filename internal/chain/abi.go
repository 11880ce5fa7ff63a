package chain

// ContestABI covers the parts of the contest contract this service reads and calls
const ContestABI = `[
  {"type":"function","name":"contestIdCounter","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"contests","stateMutability":"view",
   "inputs":[{"name":"contestId","type":"uint256"}],
   "outputs":[
     {"name":"id","type":"uint256"},
     {"name":"gameId","type":"uint256"},
     {"name":"creator","type":"address"},
     {"name":"boxCost","type":"tuple","components":[{"name":"currency","type":"address"},{"name":"amount","type":"uint256"}]},
     {"name":"boxesCanBeClaimed","type":"bool"},
     {"name":"rewardsPaid","type":"tuple","components":[{"name":"q1Paid","type":"bool"},{"name":"q2Paid","type":"bool"},{"name":"q3Paid","type":"bool"},{"name":"finalPaid","type":"bool"}]},
     {"name":"totalRewards","type":"uint256"},
     {"name":"boxesClaimed","type":"uint256"},
     {"name":"randomValuesSet","type":"bool"}
   ]},
  {"type":"function","name":"fetchContestCols","stateMutability":"view","inputs":[{"name":"contestId","type":"uint256"}],"outputs":[{"name":"","type":"uint8[]"}]},
  {"type":"function","name":"fetchContestRows","stateMutability":"view","inputs":[{"name":"contestId","type":"uint256"}],"outputs":[{"name":"","type":"uint8[]"}]},
  {"type":"function","name":"boxes","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"isRewardPaidForQuarter","stateMutability":"view",
   "inputs":[{"name":"contestId","type":"uint256"},{"name":"quarter","type":"uint8"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"getGameIdForContest","stateMutability":"view","inputs":[{"name":"contestId","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getGameScores","stateMutability":"view",
   "inputs":[{"name":"gameId","type":"uint256"}],
   "outputs":[{"name":"","type":"tuple","components":[
     {"name":"id","type":"uint256"},
     {"name":"homeQ1LastDigit","type":"uint8"},
     {"name":"homeQ2LastDigit","type":"uint8"},
     {"name":"homeQ3LastDigit","type":"uint8"},
     {"name":"homeFLastDigit","type":"uint8"},
     {"name":"awayQ1LastDigit","type":"uint8"},
     {"name":"awayQ2LastDigit","type":"uint8"},
     {"name":"awayQ3LastDigit","type":"uint8"},
     {"name":"awayFLastDigit","type":"uint8"},
     {"name":"qComplete","type":"uint8"},
     {"name":"requestInProgress","type":"bool"}
   ]}]},
  {"type":"function","name":"Q1_PAYOUT","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"Q2_PAYOUT","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"Q3_PAYOUT","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"FINAL_PAYOUT","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"PERCENT_DENOMINATOR","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"TREASURY_FEE","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"vrfFee","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"claimReward","stateMutability":"nonpayable",
   "inputs":[{"name":"contestId","type":"uint256"},{"name":"tokenId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"claimBoxes","stateMutability":"payable",
   "inputs":[{"name":"tokenIds","type":"uint256[]"},{"name":"player","type":"address"}],"outputs":[]},
  {"type":"function","name":"fetchRandomValues","stateMutability":"payable",
   "inputs":[{"name":"_contestId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"fetchFreshGameScores","stateMutability":"nonpayable",
   "inputs":[
     {"name":"args","type":"string[]"},
     {"name":"subscriptionId","type":"uint64"},
     {"name":"gasLimit","type":"uint32"},
     {"name":"jobId","type":"bytes32"},
     {"name":"gameId","type":"uint256"}
   ],"outputs":[]}
]`

// ReaderABI is the companion contract that resolves a contest's currency
const ReaderABI = `[
  {"type":"function","name":"getContestCurrency","stateMutability":"view",
   "inputs":[{"name":"contestId","type":"uint256"}],
   "outputs":[
     {"name":"","type":"address"},
     {"name":"","type":"uint256"},
     {"name":"","type":"string"},
     {"name":"","type":"string"},
     {"name":"","type":"uint256"}
   ]}
]`

// ERC721ABI is the subset of the boxes NFT used for ownership lookups
const ERC721ABI = `[
  {"type":"function","name":"ownerOf","stateMutability":"view",
   "inputs":[{"name":"tokenId","type":"uint256"}],
   "outputs":[{"name":"","type":"address"}]}
]`
